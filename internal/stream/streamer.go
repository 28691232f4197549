// Package stream turns one recipe request into an ordered sequence of events:
// a chunk per line of the normalized recipe, then a single close or error.
package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wastetofeast/internal/recipe"
)

const generationService = "recipe generation"

// Sink receives events in order. Send must flush before returning.
type Sink interface {
	Send(Event) error
}

// Generator produces recipe text from a prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// History records recipes whose stream closed successfully.
type History interface {
	SaveRecipe(ctx context.Context, record *recipe.Record) error
}

// Streamer runs recipe streams. It holds no per-stream state and is safe for
// concurrent use.
type Streamer struct {
	generator Generator
	delay     time.Duration
	logger    *zap.Logger
	history   History
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithHistory saves every closed stream's recipe to h.
func WithHistory(h History) Option {
	return func(s *Streamer) { s.history = h }
}

// New creates a Streamer that waits delay between chunks.
func New(generator Generator, delay time.Duration, logger *zap.Logger, opts ...Option) *Streamer {
	if delay < 0 {
		delay = 0
	}
	s := &Streamer{generator: generator, delay: delay, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run streams the recipe for req to sink. Exactly one terminal event is sent
// unless ctx ends first, in which case emission stops and ctx.Err() is returned.
// A failure reported to the client as an error event is also returned.
func (s *Streamer) Run(ctx context.Context, req recipe.Request, sink Sink) error {
	if err := req.Validate(); err != nil {
		return s.fail(sink, err)
	}

	generated, err := s.generator.GenerateText(ctx, req.Prompt())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.fail(sink, &recipe.ExternalServiceError{Service: generationService, Err: err})
	}

	normalized, err := recipe.Normalize(generated)
	if err != nil {
		return s.fail(sink, &recipe.ExternalServiceError{Service: generationService, Err: err})
	}

	var timer *time.Timer
	for i, line := range recipe.Lines(normalized) {
		if i > 0 && s.delay > 0 {
			if timer == nil {
				timer = time.NewTimer(s.delay)
				defer timer.Stop()
			} else {
				timer.Reset(s.delay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Send(Chunk(line)); err != nil {
			return fmt.Errorf("failed to send chunk: %w", err)
		}
	}

	if err := sink.Send(Close()); err != nil {
		return fmt.Errorf("failed to send close: %w", err)
	}

	s.record(context.WithoutCancel(ctx), req, normalized)
	return nil
}

func (s *Streamer) fail(sink Sink, cause error) error {
	if err := sink.Send(Error(cause.Error())); err != nil {
		s.logger.Warn("Failed to send error event", zap.Error(err))
	}
	return cause
}

func (s *Streamer) record(ctx context.Context, req recipe.Request, text string) {
	if s.history == nil {
		return
	}
	rec := &recipe.Record{
		ID:          uuid.NewString(),
		Title:       recipe.RenderFinal(text).Title,
		Ingredients: req.Ingredients,
		MealType:    req.MealType,
		Cuisine:     req.Cuisine,
		CookingTime: req.CookingTime,
		Complexity:  req.Complexity,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.history.SaveRecipe(ctx, rec); err != nil {
		s.logger.Error("Failed to save recipe history", zap.String("title", rec.Title), zap.Error(err))
		return
	}
	s.logger.Debug("Saved recipe history", zap.String("id", rec.ID), zap.String("title", rec.Title))
}
