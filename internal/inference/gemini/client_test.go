package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/at-ishikawa/storyteller/internal/inference"
)

type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	errs      []error

	calls   int
	models  []string
	prompts []string
}

func (f *fakeGenerator) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	index := f.calls
	f.calls++
	f.models = append(f.models, model)
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}

	var err error
	if index < len(f.errs) {
		err = f.errs[index]
	}
	var response *genai.GenerateContentResponse
	if index < len(f.responses) {
		response = f.responses[index]
	}
	return response, err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: genai.NewContentFromText(text, genai.RoleModel),
			},
		},
	}
}

func TestClient_Generate(t *testing.T) {
	const storyText = "The gate creaked open.\n\n1. Enter\n2. Leave\n\nIMAGE_KEYWORD: castle"

	tests := []struct {
		name             string
		maxRetryAttempts uint
		generator        *fakeGenerator

		wantText      string
		wantCalls     int
		wantError     bool
		wantErrorText string
	}{
		{
			name: "success",
			generator: &fakeGenerator{
				responses: []*genai.GenerateContentResponse{textResponse(storyText + "\n")},
			},
			wantText:  storyText,
			wantCalls: 1,
		},
		{
			name:             "rate limit is retried",
			maxRetryAttempts: 2,
			generator: &fakeGenerator{
				errs: []error{
					genai.APIError{Code: http.StatusTooManyRequests, Message: "quota"},
					nil,
				},
				responses: []*genai.GenerateContentResponse{nil, textResponse(storyText)},
			},
			wantText:  storyText,
			wantCalls: 2,
		},
		{
			name:             "invalid argument is not retried",
			maxRetryAttempts: 2,
			generator: &fakeGenerator{
				errs: []error{genai.APIError{Code: http.StatusBadRequest, Message: "API key not valid"}},
			},
			wantCalls:     1,
			wantError:     true,
			wantErrorText: "API key not valid",
		},
		{
			name: "transport error",
			generator: &fakeGenerator{
				errs: []error{errors.New("dial tcp: no such host")},
			},
			wantCalls:     1,
			wantError:     true,
			wantErrorText: "no such host",
		},
		{
			name: "blank text",
			generator: &fakeGenerator{
				responses: []*genai.GenerateContentResponse{textResponse("  \n ")},
			},
			wantCalls:     1,
			wantError:     true,
			wantErrorText: "empty response text",
		},
		{
			name: "no candidates",
			generator: &fakeGenerator{
				responses: []*genai.GenerateContentResponse{{}},
			},
			wantCalls:     1,
			wantError:     true,
			wantErrorText: "empty response text",
		},
		{
			name:          "nil response",
			generator:     &fakeGenerator{},
			wantCalls:     1,
			wantError:     true,
			wantErrorText: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				models:           tt.generator,
				model:            DefaultModel,
				maxRetryAttempts: tt.maxRetryAttempts,
				retryDelay:       time.Millisecond,
			}

			got, err := client.Generate(context.Background(), "once upon a time")
			assert.Equal(t, tt.wantCalls, tt.generator.calls)
			for _, model := range tt.generator.models {
				assert.Equal(t, DefaultModel, model)
			}
			for _, prompt := range tt.generator.prompts {
				assert.Equal(t, "once upon a time", prompt)
			}

			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, inference.ErrGeneration)
				var generationErr *inference.GenerationError
				require.ErrorAs(t, err, &generationErr)
				assert.Equal(t, "gemini", generationErr.Provider)
				assert.Contains(t, err.Error(), tt.wantErrorText)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got)
		})
	}
}

func TestClient_Generate_BacksOffBetweenRetries(t *testing.T) {
	overloaded := genai.APIError{Code: http.StatusServiceUnavailable, Message: "overloaded"}
	generator := &fakeGenerator{
		errs:      []error{overloaded, overloaded, overloaded, nil},
		responses: []*genai.GenerateContentResponse{nil, nil, nil, textResponse("The end.")},
	}
	client := &Client{
		models:           generator,
		model:            DefaultModel,
		maxRetryAttempts: 3,
		retryDelay:       20 * time.Millisecond,
	}

	start := time.Now()
	got, err := client.Generate(context.Background(), "once upon a time")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "The end.", got)
	assert.Equal(t, 4, generator.calls)
	// 20ms, 40ms and 80ms; a constant delay would wait 60ms in total
	assert.GreaterOrEqual(t, elapsed, 120*time.Millisecond)
}

func TestNewClient_EmptyAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "", 0)
	require.Error(t, err)
}
