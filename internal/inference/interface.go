package inference

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client generates free-form text for a prompt.
// Implementations report every failure as a *GenerationError.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	DefaultMaxRetryAttempts = 3
)

// ErrGeneration matches any *GenerationError with errors.Is.
var ErrGeneration = errors.New("generation failed")

// GenerationError is returned when the model produced no usable text,
// whatever the underlying cause (auth, quota, network, empty response).
type GenerationError struct {
	Provider string
	Err      error
}

func NewGenerationError(provider string, err error) *GenerationError {
	return &GenerationError{
		Provider: provider,
		Err:      err,
	}
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, ErrGeneration, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
