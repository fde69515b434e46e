package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var defaultModel = "claude-sonnet-4-5-20250929"

type Image struct {
	Data     []byte
	MimeType string
}

// Generator is the single entry point to the external model service.
// The production implementation is Client; tests inject stubs.
type Generator interface {
	Generate(ctx context.Context, prompt string, image *Image) (string, error)
}

type Client struct {
	client anthropic.Client
	model  string
}

func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("missing-api-key")
	}

	if model == "" {
		model = defaultModel
	}

	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	var blocks []anthropic.ContentBlockParamUnion
	if image != nil {
		encoded := base64.StdEncoding.EncodeToString(image.Data)
		blocks = append(blocks, anthropic.NewImageBlockBase64(image.MimeType, encoded))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", err
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return strings.TrimSpace(text), nil
}
