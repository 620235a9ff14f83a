package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultSeed is sent to providers that accept a sampling seed.
const DefaultSeed = 69

// ErrNoFlashcard is returned when the model produced no usable card.
var ErrNoFlashcard = errors.New("model returned no flashcard")

// Request is one completion call.
type Request struct {
	System string
	Prompt string
	// JSON asks for a single JSON object as the whole reply.
	JSON bool
}

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
