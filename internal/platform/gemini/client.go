package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const detectPrompt = "List all the ingredients you can identify in this food image. Format them as a comma-separated list. Only include actual ingredients, not dishes or preparations."

// Client is a client for the Gemini API.
type Client struct {
	client      *genai.Client
	visionModel *genai.GenerativeModel
	textModel   *genai.GenerativeModel
}

// NewClient creates a new Gemini client. visionModel reads images, textModel writes recipes.
func NewClient(ctx context.Context, apiKey, visionModel, textModel string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{
		client:      client,
		visionModel: client.GenerativeModel(visionModel),
		textModel:   client.GenerativeModel(textModel),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// DetectIngredients asks the vision model for a comma-separated ingredient list.
// format is the image subtype, e.g. "jpeg" or "png".
func (c *Client) DetectIngredients(ctx context.Context, imageData []byte, format string) (string, error) {
	resp, err := c.visionModel.GenerateContent(ctx, genai.Text(detectPrompt), genai.ImageData(format, imageData))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// GenerateText sends a text-only prompt and returns the model's answer.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.textModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return b.String(), nil
}
