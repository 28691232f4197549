// Package imagegen calls an OpenAI-compatible text-to-image endpoint.
package imagegen

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// GenerationRequest is the body of an image generation call.
type GenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

// GenerationResponse is the body returned by the image endpoint.
type GenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// Client renders images from prompts.
type Client struct {
	http   *resty.Client
	apiURL string
	model  string
	size   string
}

// NewClient creates an image generation client. apiURL is the full generations endpoint.
func NewClient(apiURL, apiKey, model, size string) *Client {
	return &Client{
		http: resty.New().
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json"),
		apiURL: apiURL,
		model:  model,
		size:   size,
	}
}

// GenerateImage renders prompt and returns the image as base64.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var result GenerationResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(GenerationRequest{
			Model:          c.model,
			Prompt:         prompt,
			N:              1,
			Size:           c.size,
			ResponseFormat: "b64_json",
		}).
		SetResult(&result).
		Post(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return "", fmt.Errorf("no image data in API response")
	}
	return result.Data[0].B64JSON, nil
}
