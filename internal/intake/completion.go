package intake

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"

	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

var completionTracer = otel.Tracer("previsit.internal.intake.completion")

// CompletionClient is the external black-box text-generation dependency, used
// for question phrasing and answer classification, never for clinical
// decisions. Implementations may fail or time out; callers must tolerate both.
type CompletionClient interface {
	Complete(ctx context.Context, systemInstruction, userContext string) (string, error)
}

// ErrEmptyCompletion indicates the service answered with no usable text.
var ErrEmptyCompletion = errors.New("intake: completion service returned empty text")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompletion calls the OpenAI chat API with a short per-call timeout and
// a small retry budget for transient failures. Every other failure surfaces
// immediately so callers can take their deterministic fallback path.
type OpenAICompletion struct {
	client     chatClient
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *logging.Logger
	metrics    *metrics.IntakeMetrics
}

var _ CompletionClient = (*OpenAICompletion)(nil)

// NewOpenAICompletion returns an OpenAI-backed completion client.
func NewOpenAICompletion(client chatClient, model string, timeout time.Duration, maxRetries int, logger *logging.Logger, m *metrics.IntakeMetrics) *OpenAICompletion {
	if client == nil {
		panic("intake: chat client cannot be nil")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAICompletion{
		client:     client,
		model:      model,
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     logger,
		metrics:    m,
	}
}

// Complete sends one system+user exchange and returns the trimmed reply.
func (c *OpenAICompletion) Complete(ctx context.Context, systemInstruction, userContext string) (string, error) {
	ctx, span := completionTracer.Start(ctx, "intake.completion")
	defer span.End()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userContext},
		},
		Temperature: 0.4,
		MaxTokens:   180,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(callCtx, req)
		cancel()
		if err == nil {
			if len(resp.Choices) == 0 {
				c.metrics.ObserveCompletionCall("complete", "empty")
				return "", ErrEmptyCompletion
			}
			text := strings.TrimSpace(resp.Choices[0].Message.Content)
			if text == "" {
				c.metrics.ObserveCompletionCall("complete", "empty")
				return "", ErrEmptyCompletion
			}
			c.metrics.ObserveCompletionCall("complete", "ok")
			return text, nil
		}

		span.RecordError(err)
		lastErr = err
		if !retryableCompletionErr(err) || attempt == c.maxRetries {
			break
		}
		c.logger.Warn("completion retry",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"error", err,
		)
		if sleepErr := sleepBackoff(ctx, attempt); sleepErr != nil {
			c.metrics.ObserveCompletionCall("complete", "error")
			return "", sleepErr
		}
	}

	c.metrics.ObserveCompletionCall("complete", "error")
	return "", fmt.Errorf("intake: completion failed: %w", lastErr)
}

// retryableCompletionErr limits retries to rate-limiting, server-side errors
// and network timeouts.
func retryableCompletionErr(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return true
		}
		return apiErr.HTTPStatusCode >= 500 && apiErr.HTTPStatusCode <= 599
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// A per-call deadline expiring is transient as long as the parent
	// context is still alive; sleepBackoff aborts otherwise.
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepBackoff(ctx context.Context, attempt int) error {
	delay := 300 * time.Millisecond * time.Duration(attempt+1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
