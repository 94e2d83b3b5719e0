package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ---------------------------- Ollama -----------------------------------------

// OllamaLLM is the local-model escape hatch: when every cloud entry in the
// fallback chain is cooling down, a locally served model can still answer.
type OllamaLLM struct {
	Client *ollama.Client
	Model  string
}

func NewOllamaLLM(model string) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}

	c := ollama.NewClient(u, httpClient)
	return &OllamaLLM{Client: c, Model: model}, nil
}

func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (any, error) {
	return o.generate(ctx, prompt, nil)
}

func (o *OllamaLLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	var images []ollama.ImageData
	for _, f := range files {
		if strings.HasPrefix(strings.ToLower(f.MIME), "image/") && len(f.Data) > 0 {
			images = append(images, ollama.ImageData(f.Data))
		}
	}
	return o.generate(ctx, prompt, images)
}

func (o *OllamaLLM) generate(ctx context.Context, prompt string, images []ollama.ImageData) (any, error) {
	var text strings.Builder

	req := &ollama.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Images: images,
	}

	if err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return text.String(), nil
}

var _ Agent = (*OllamaLLM)(nil)
