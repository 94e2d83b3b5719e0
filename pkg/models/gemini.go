package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

type GeminiLLM struct {
	Client *genai.Client
	Model  string
}

// NewGeminiLLM builds a Gemini-backed Agent using the customer's stored API
// key. The key comes from config, not the environment: the desktop app
// persists it after validation.
func NewGeminiLLM(ctx context.Context, apiKey, model string) (*GeminiLLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiLLM{Client: client, Model: model}, nil
}

func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (any, error) {
	model := g.Client.GenerativeModel(g.Model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return geminiText(resp)
}

// GenerateWithFiles attaches image payloads as inline blobs. Unsupported MIME
// types are skipped rather than failing the whole request.
func (g *GeminiLLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	model := g.Client.GenerativeModel(g.Model)

	parts := []genai.Part{genai.Text(prompt)}
	for _, f := range files {
		mt := sanitizeForGemini(f.MIME)
		if mt == "" || len(f.Data) == 0 {
			continue
		}
		parts = append(parts, genai.Blob{MIMEType: mt, Data: f.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return geminiText(resp)
}

func geminiText(resp *genai.GenerateContentResponse) (any, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// sanitizeForGemini filters attachments to what the Gemini API accepts.
// Return "" to skip attaching (fallback to text-only).
func sanitizeForGemini(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "image/png", "image/webp", "image/gif":
		return mt
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "image/jpeg"
	default:
		return ""
	}
}

var _ Agent = (*GeminiLLM)(nil)
