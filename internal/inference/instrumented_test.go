package inference_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/storyteller/internal/inference"
	mock_inference "github.com/at-ishikawa/storyteller/internal/mocks/inference"
)

func TestInstrumented_Generate(t *testing.T) {
	var generated bool
	tests := []struct {
		name         string
		setupMock    func(mockClient *mock_inference.MockClient)
		tokenCounter inference.TokenCounter

		wantText        string
		wantErr         bool
		wantSuccess     float64
		wantFailure     float64
		wantTokenSample uint64
	}{
		{
			name: "success is counted",
			setupMock: func(mockClient *mock_inference.MockClient) {
				mockClient.EXPECT().
					Generate(gomock.Any(), "prompt").
					Return("story", nil)
			},
			wantText:    "story",
			wantSuccess: 1,
		},
		{
			name: "failure is counted and returned unchanged",
			setupMock: func(mockClient *mock_inference.MockClient) {
				mockClient.EXPECT().
					Generate(gomock.Any(), "prompt").
					Return("", inference.NewGenerationError("gemini", errors.New("quota exceeded")))
			},
			wantErr:     true,
			wantFailure: 1,
		},
		{
			name: "token counter observes prompt size",
			setupMock: func(mockClient *mock_inference.MockClient) {
				mockClient.EXPECT().
					Generate(gomock.Any(), "prompt").
					Return("story", nil)
			},
			tokenCounter: func(text string) (int, error) {
				return len(text), nil
			},
			wantText:        "story",
			wantSuccess:     1,
			wantTokenSample: 1,
		},
		{
			name: "token counter runs after the model answers",
			setupMock: func(mockClient *mock_inference.MockClient) {
				mockClient.EXPECT().
					Generate(gomock.Any(), "prompt").
					DoAndReturn(func(ctx context.Context, _ string) (string, error) {
						generated = true
						return "story", nil
					})
			},
			tokenCounter: func(text string) (int, error) {
				if !generated {
					return 0, errors.New("counted before the model call")
				}
				return len(text), nil
			},
			wantText:        "story",
			wantSuccess:     1,
			wantTokenSample: 1,
		},
		{
			name: "token counter failure does not block generation",
			setupMock: func(mockClient *mock_inference.MockClient) {
				mockClient.EXPECT().
					Generate(gomock.Any(), "prompt").
					Return("story", nil)
			},
			tokenCounter: func(text string) (int, error) {
				return 0, errors.New("encoding unavailable")
			},
			wantText:    "story",
			wantSuccess: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generated = false
			ctrl := gomock.NewController(t)
			mockClient := mock_inference.NewMockClient(ctrl)
			tt.setupMock(mockClient)

			registry := prometheus.NewRegistry()
			client := inference.NewInstrumented(mockClient, "gemini", inference.NewMetrics(registry))
			if tt.tokenCounter != nil {
				client = client.WithTokenCounter(tt.tokenCounter)
			}

			got, err := client.Generate(context.Background(), "prompt")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, inference.ErrGeneration)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, got)
			}

			families, err := registry.Gather()
			require.NoError(t, err)

			var tokenSamples uint64
			for _, family := range families {
				switch family.GetName() {
				case "storyteller_generation_requests_total":
					for _, metric := range family.GetMetric() {
						status := ""
						for _, label := range metric.GetLabel() {
							if label.GetName() == "status" {
								status = label.GetValue()
							}
						}
						switch status {
						case "success":
							assert.Equal(t, tt.wantSuccess, metric.GetCounter().GetValue())
						case "error":
							assert.Equal(t, tt.wantFailure, metric.GetCounter().GetValue())
						}
					}
				case "storyteller_generation_prompt_tokens":
					for _, metric := range family.GetMetric() {
						tokenSamples += metric.GetHistogram().GetSampleCount()
					}
				}
			}
			assert.Equal(t, tt.wantTokenSample, tokenSamples)
			assert.Equal(t, 1, testutil.CollectAndCount(registry, "storyteller_generation_duration_seconds"))
		})
	}
}

func TestInstrumented_WithTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mock_inference.NewMockClient(ctrl)
	mockClient.EXPECT().
		Generate(gomock.Any(), "prompt").
		DoAndReturn(func(ctx context.Context, _ string) (string, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
			return "story", nil
		})

	client := inference.NewInstrumented(mockClient, "openai", inference.NewMetrics(prometheus.NewRegistry())).
		WithTimeout(time.Minute)
	got, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "story", got)
}

func TestTiktokenCounter(t *testing.T) {
	count := inference.TiktokenCounter()

	got, err := count("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = count("")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := inference.NewGenerationError("openai", cause)

	assert.ErrorIs(t, err, inference.ErrGeneration)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "openai: generation failed: connection refused", err.Error())

	var generationErr *inference.GenerationError
	require.ErrorAs(t, error(err), &generationErr)
	assert.Equal(t, "openai", generationErr.Provider)
}
