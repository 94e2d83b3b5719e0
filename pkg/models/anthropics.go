package models

import (
	"context"
	"encoding/base64"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM implements the Agent interface using Anthropic's Messages API.
type AnthropicLLM struct {
	Client    *anthropic.Client
	Model     string
	MaxTokens int
}

func NewAnthropicLLM(apiKey, model string) *AnthropicLLM {
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(apiKey),
	)
	return &AnthropicLLM{
		Client:    &cl,
		Model:     model,
		MaxTokens: 1024,
	}
}

// Generate performs a single-turn completion and returns concatenated text.
func (a *AnthropicLLM) Generate(ctx context.Context, prompt string) (any, error) {
	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, err
	}
	return anthropicText(msg), nil
}

func (a *AnthropicLLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)}
	for _, f := range files {
		mt := strings.ToLower(strings.TrimSpace(f.MIME))
		if !strings.HasPrefix(mt, "image/") || len(f.Data) == 0 {
			continue
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mt, base64.StdEncoding.EncodeToString(f.Data)))
	}

	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, err
	}
	return anthropicText(msg), nil
}

func anthropicText(msg *anthropic.Message) string {
	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String()
}

var _ Agent = (*AnthropicLLM)(nil)
