package models

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAILLM struct {
	Client *openai.Client
	Model  string
}

func NewOpenAILLM(apiKey, model string) *OpenAILLM {
	return &OpenAILLM{Client: openai.NewClient(apiKey), Model: model}
}

func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (any, error) {
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateWithFiles sends images as data URLs in a multi-part user message.
func (o *OpenAILLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	}}
	for _, f := range files {
		mt := strings.ToLower(strings.TrimSpace(f.MIME))
		if !strings.HasPrefix(mt, "image/") || len(f.Data) == 0 {
			continue
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(f.Data)),
			},
		})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Agent = (*OpenAILLM)(nil)
