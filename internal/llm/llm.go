// Package llm talks to chat-completion providers.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyCompletion = errors.New("llm: empty completion")

type Request struct {
	System string
	Prompt string
}

// Completer turns a single system+user prompt into the assistant's text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
