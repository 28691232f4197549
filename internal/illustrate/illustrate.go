// Package illustrate produces a picture for a finished recipe.
package illustrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wastetofeast/internal/recipe"
)

// ErrEmptyRecipeName is returned when no recipe name was given.
var ErrEmptyRecipeName = errors.New("recipe name is required")

const describePrompt = `Describe the finished dish "%s" as it would look plated and photographed from above.
Answer with a single paragraph of at most 60 words describing colors, textures and garnish. Do not include a recipe.`

const imagePromptPrefix = "A realistic food photograph. "

// TextGenerator describes the dish.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator renders a picture and returns it base64 encoded.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Cache stores finished illustrations by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, image string) error
}

// Illustrator turns a recipe name into an image with one description call and
// one image generation call.
type Illustrator struct {
	text   TextGenerator
	images ImageGenerator
	cache  Cache
	logger *zap.Logger
}

// New creates an Illustrator. cache may be nil.
func New(text TextGenerator, images ImageGenerator, cache Cache, logger *zap.Logger) *Illustrator {
	return &Illustrator{text: text, images: images, cache: cache, logger: logger}
}

// Illustrate returns a base64 image of the named dish.
func (i *Illustrator) Illustrate(ctx context.Context, recipeName string) (string, error) {
	name := strings.TrimSpace(recipeName)
	if name == "" {
		return "", ErrEmptyRecipeName
	}
	key := CacheKey(name)

	if i.cache != nil {
		image, ok, err := i.cache.Get(ctx, key)
		switch {
		case err != nil:
			i.logger.Warn("Illustration cache lookup failed", zap.String("key", key), zap.Error(err))
		case ok:
			i.logger.Debug("Illustration cache hit", zap.String("key", key))
			return image, nil
		}
	}

	description, err := i.text.GenerateText(ctx, fmt.Sprintf(describePrompt, name))
	if err != nil {
		return "", &recipe.ExternalServiceError{Service: "dish description", Err: err}
	}

	image, err := i.images.GenerateImage(ctx, imagePromptPrefix+strings.TrimSpace(description))
	if err != nil {
		return "", &recipe.ExternalServiceError{Service: "image generation", Err: err}
	}

	if i.cache != nil {
		if err := i.cache.Set(ctx, key, image); err != nil {
			i.logger.Warn("Failed to cache illustration", zap.String("key", key), zap.Error(err))
		}
	}
	return image, nil
}

// CacheKey normalizes a recipe name so that case and spacing do not matter.
func CacheKey(recipeName string) string {
	return "illustration:" + strings.Join(strings.Fields(strings.ToLower(recipeName)), " ")
}
