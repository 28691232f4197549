package localllm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const detectPrompt = "List all the ingredients you can identify in this food image. Format them as a comma-separated list. Only include actual ingredients, not dishes or preparations."

// Client represents a client for a local OpenAI-compatible chat completions server.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a new client for the local LLM. baseURL is the server root,
// e.g. http://localhost:1234/v1.
func NewClient(baseURL, model string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
		model: model,
	}
}

// Request represents the request body for the local LLM.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Message represents a message in the request.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// Content represents the content of a message.
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents the image URL in the content.
type ImageURL struct {
	URL string `json:"url"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message ResponseMessage `json:"message"`
}

// ResponseMessage represents a message in the response.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateText sends a text-only prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []Content{{Type: "text", Text: prompt}})
}

// DetectIngredients sends the image with the ingredient listing prompt.
func (c *Client) DetectIngredients(ctx context.Context, imageData []byte, format string) (string, error) {
	encodedImage := base64.StdEncoding.EncodeToString(imageData)
	return c.complete(ctx, []Content{
		{Type: "text", Text: detectPrompt},
		{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/" + format + ";base64," + encodedImage}},
	})
}

func (c *Client) complete(ctx context.Context, content []Content) (string, error) {
	reqBody := Request{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: content}},
		Temperature: 1,
		MaxTokens:   1024,
	}

	var llmResp Response
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&llmResp).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("received non-OK status code: %d", resp.StatusCode())
	}

	if len(llmResp.Choices) == 0 || llmResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content found in response")
	}
	return llmResp.Choices[0].Message.Content, nil
}
