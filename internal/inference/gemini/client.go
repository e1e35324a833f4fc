package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/genai"

	"github.com/at-ishikawa/storyteller/internal/inference"
)

const (
	providerName = "gemini"
	DefaultModel = "gemini-1.5-flash"

	defaultRetryDelay = 500 * time.Millisecond
)

// generator is the subset of genai.Models used by the client.
type generator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models           generator
	model            string
	maxRetryAttempts uint
	retryDelay       time.Duration
}

var _ inference.Client = (*Client)(nil)

func NewClient(ctx context.Context, apiKey, model string, retryAttempts uint) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient > %w", err)
	}
	return &Client{
		models:           client.Models,
		model:            model,
		maxRetryAttempts: retryAttempts,
		retryDelay:       defaultRetryDelay,
	}, nil
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

func isRetryableError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}

// Generate implements the inference.Client interface
func (client *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	if err := retry.Do(
		func() error {
			text, err := client.generate(ctx, prompt)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(client.retryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Info("Retrying Gemini API call",
				"attempt", n+1,
				"error", err)
		}),
	); err != nil {
		return "", inference.NewGenerationError(providerName, err)
	}
	return result, nil
}

func (client *Client) generate(ctx context.Context, prompt string) (string, error) {
	response, err := client.models.GenerateContent(ctx, client.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("models.GenerateContent > %w", err)
	}
	if response == nil {
		return "", errors.New("empty response")
	}

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return "", errors.New("empty response text")
	}
	slog.Default().Debug("gemini response",
		"model", client.model,
		"length", len(text))
	return text, nil
}
