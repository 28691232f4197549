// Package client talks to the recipe server and renders streamed recipes.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"wastetofeast/internal/ingredient"
	"wastetofeast/internal/recipe"
	"wastetofeast/internal/shelflife"
	"wastetofeast/internal/stream"
)

// APIError is an error response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Message, e.Details, e.Status)
}

// Client calls the recipe server. Recipe streams use their own resty client
// so that a request timeout never cuts a stream short.
type Client struct {
	http   *resty.Client
	stream *resty.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:3001.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
		stream: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "text/event-stream"),
	}
}

// SetTimeout bounds non-streaming requests. Streams are bounded by their context only.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.http.SetTimeout(d)
	return c
}

// AnalyzeImage uploads a photo and returns the detected ingredients.
func (c *Client) AnalyzeImage(ctx context.Context, filename string, data []byte) ([]ingredient.Record, error) {
	var result struct {
		Ingredients []ingredient.Record `json:"ingredients"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("image", filename, bytes.NewReader(data)).
		SetResult(&result).
		SetError(&APIError{}).
		Post("/analyze-image")
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	if resp.IsError() {
		apiErr := responseError(resp)
		switch resp.StatusCode() {
		case http.StatusRequestEntityTooLarge:
			return nil, fmt.Errorf("%w: %v", recipe.ErrSizeLimitExceeded, apiErr)
		case http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: %v", recipe.ErrNoIngredientsDetected, apiErr)
		}
		return nil, apiErr
	}
	return result.Ingredients, nil
}

// StreamRecipe requests a recipe and calls handle for every event in arrival
// order. It returns once a terminal event was handled, handle fails, or ctx ends.
// A stream that ends without a terminal event is reported as io.ErrUnexpectedEOF.
func (c *Client) StreamRecipe(ctx context.Context, req recipe.Request, handle func(stream.Event) error) error {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetQueryParams(req.Query()).
		SetDoNotParseResponse(true).
		Get("/recipeStream")
	if err != nil {
		return fmt.Errorf("failed to open recipe stream: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: "recipe stream rejected"}
	}

	return readEvents(body, handle)
}

// GenerateImage returns a base64 illustration of the named recipe.
func (c *Client) GenerateImage(ctx context.Context, recipeName string) (string, error) {
	var result struct {
		ImageURL string `json:"imageUrl"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("recipeName", recipeName).
		SetResult(&result).
		SetError(&APIError{}).
		Get("/generateImage")
	if err != nil {
		return "", fmt.Errorf("failed to request image: %w", err)
	}
	if resp.IsError() {
		return "", responseError(resp)
	}
	if result.ImageURL == "" {
		return "", errors.New("server returned an empty image")
	}
	return result.ImageURL, nil
}

// ShelfLife looks up a single ingredient.
func (c *Client) ShelfLife(ctx context.Context, name string) (shelflife.ShelfLife, bool, error) {
	var result struct {
		ShelfLife shelflife.ShelfLife `json:"shelfLife"`
		Known     bool                `json:"known"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetResult(&result).
		SetError(&APIError{}).
		Get("/shelf-life/{name}")
	if err != nil {
		return shelflife.ShelfLife{}, false, fmt.Errorf("failed to look up shelf life: %w", err)
	}
	if resp.IsError() {
		return shelflife.ShelfLife{}, false, responseError(resp)
	}
	return result.ShelfLife, result.Known, nil
}

// Recipes lists previously generated recipes, newest first.
func (c *Client) Recipes(ctx context.Context, cuisine, mealType string) ([]recipe.Record, error) {
	var result []recipe.Record
	r := c.http.R().SetContext(ctx).SetResult(&result).SetError(&APIError{})
	if cuisine != "" {
		r.SetQueryParam("cuisine", cuisine)
	}
	if mealType != "" {
		r.SetQueryParam("mealType", mealType)
	}
	resp, err := r.Get("/recipes")
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return result, nil
}

func responseError(resp *resty.Response) *APIError {
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil || apiErr.Message == "" {
		return &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}
