package models

import "context"

// File is a lightweight in-memory attachment sent alongside a prompt.
// The assistant uses it for uploaded images (multimodal questions);
// MIME should be best-effort (e.g. "image/jpeg").
type File struct {
	Name string
	MIME string
	Data []byte
}

// Agent is a single generative backend. Implementations return the model's
// text output; the fallback chain in pkg/router decides which Agent runs.
type Agent interface {
	Generate(context.Context, string) (any, error)
	GenerateWithFiles(context.Context, string, []File) (any, error)
}
