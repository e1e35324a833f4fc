// Package openai generates story segments with an OpenAI compatible chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/storyteller/internal/inference"
)

const (
	providerName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	defaultRetryDelay = 500 * time.Millisecond
	temperature       = 0.9
	roleUser          = "user"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
	retryDelay       time.Duration
}

var _ inference.Client = (*Client)(nil)

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	if model == "" {
		model = DefaultModel
	}

	client := resty.New().
		SetBaseURL(DefaultBaseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
		retryDelay:       defaultRetryDelay,
	}
}

// SetBaseURL points the client to an OpenAI compatible endpoint such as a local server.
func (client *Client) SetBaseURL(baseURL string) *Client {
	client.httpClient.SetBaseURL(baseURL)
	return client
}

// SetTimeout bounds a single HTTP attempt.
func (client *Client) SetTimeout(timeout time.Duration) *Client {
	client.httpClient.SetTimeout(timeout)
	return client
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

func (client *Client) GetModel() string {
	return client.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// errorResponse is the error envelope of the API.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("response error %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// isRetryableError accepts rate limits, server errors and dropped connections.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// a body cut off mid-response
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr)
}

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
			slog.Default().Info("Retrying OpenAI API call",
				"attempt", n+1,
				"model", client.model,
				"error", err)
		}),
	); err != nil {
		return "", inference.NewGenerationError(providerName, err)
	}
	return result, nil
}

func (client *Client) generate(ctx context.Context, prompt string) (string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       client.model,
			Temperature: temperature,
			Messages: []chatMessage{
				{Role: roleUser, Content: prompt},
			},
		}).
		SetResult(&chatResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		message := response.String()
		var apiErr errorResponse
		if json.Unmarshal([]byte(message), &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return "", &StatusError{StatusCode: response.StatusCode(), Message: message}
	}

	body, ok := response.Result().(*chatResponse)
	if !ok || body == nil || len(body.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := strings.TrimSpace(body.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response content, finish reason %q", body.Choices[0].FinishReason)
	}
	slog.Default().Debug("openai response",
		"model", body.Model,
		"finishReason", body.Choices[0].FinishReason,
		"promptTokens", body.Usage.PromptTokens,
		"completionTokens", body.Usage.CompletionTokens,
	)
	return content, nil
}
