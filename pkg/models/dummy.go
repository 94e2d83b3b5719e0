package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyLLM is a lightweight model implementation useful for local testing without API calls.
type DummyLLM struct {
	Prefix string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) Generate(_ context.Context, prompt string) (any, error) {
	lines := strings.Split(prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return fmt.Sprintf("%s %s", d.Prefix, last), nil
}

func (d *DummyLLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("%s %s [files: %s]", d.Prefix, prompt, strings.Join(names, ", ")), nil
}

var _ Agent = (*DummyLLM)(nil)
