package inference

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors recorded around every model call.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	promptTokens *prometheus.HistogramVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storyteller_generation_requests_total",
			Help: "Total number of story generation requests sent to the model.",
		}, []string{"provider", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storyteller_generation_duration_seconds",
			Help:    "Latency of story generation requests.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"provider"}),
		promptTokens: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storyteller_generation_prompt_tokens",
			Help:    "Approximate number of tokens per prompt.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 8),
		}, []string{"provider"}),
	}
}

// TokenCounter estimates how many tokens a prompt uses.
type TokenCounter func(text string) (int, error)

// Instrumented decorates a Client with metrics and debug logging.
type Instrumented struct {
	next        Client
	provider    string
	metrics     *Metrics
	countTokens TokenCounter
	timeout     time.Duration
}

var _ Client = (*Instrumented)(nil)

func NewInstrumented(next Client, provider string, metrics *Metrics) *Instrumented {
	return &Instrumented{
		next:     next,
		provider: provider,
		metrics:  metrics,
	}
}

// WithTokenCounter enables the prompt token histogram.
func (client *Instrumented) WithTokenCounter(counter TokenCounter) *Instrumented {
	client.countTokens = counter
	return client
}

// WithTimeout bounds every call. Zero means no deadline.
func (client *Instrumented) WithTimeout(timeout time.Duration) *Instrumented {
	client.timeout = timeout
	return client
}

func (client *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	if client.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := client.next.Generate(ctx, prompt)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	client.metrics.requests.WithLabelValues(client.provider, status).Inc()
	client.metrics.duration.WithLabelValues(client.provider).Observe(elapsed.Seconds())
	client.observePromptTokens(prompt)

	slog.Default().Debug("story generation",
		"provider", client.provider,
		"status", status,
		"elapsed", elapsed,
		"prompt", prompt,
		"response", text,
		"error", err,
	)
	return text, err
}

// observePromptTokens is called once the model has answered.
func (client *Instrumented) observePromptTokens(prompt string) {
	if client.countTokens == nil {
		return
	}
	tokens, err := client.countTokens(prompt)
	if err != nil {
		slog.Default().Debug("failed to count prompt tokens",
			"provider", client.provider,
			"error", err)
		return
	}
	client.metrics.promptTokens.WithLabelValues(client.provider).Observe(float64(tokens))
}

// TiktokenCounter counts tokens with the cl100k_base encoding, read from the BPE files
// embedded in the binary instead of downloading them.
// A load failure is reported on every call.
func TiktokenCounter() TokenCounter {
	var (
		once     sync.Once
		encoding *tiktoken.Tiktoken
		loadErr  error
	)
	return func(text string) (int, error) {
		once.Do(func() {
			tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
			encoding, loadErr = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		})
		if loadErr != nil {
			return 0, loadErr
		}
		return len(encoding.Encode(text, nil, nil)), nil
	}
}
