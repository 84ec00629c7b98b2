package intake

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChat scripts a sequence of OpenAI responses, one per call.
type stubChat struct {
	responses []stubChatResponse
	requests  []openai.ChatCompletionRequest
}

type stubChatResponse struct {
	text string
	err  error
}

func (s *stubChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.responses) {
		return openai.ChatCompletionResponse{}, errors.New("stub exhausted")
	}
	r := s.responses[i]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: r.text}},
		},
	}, nil
}

func TestOpenAICompletion_Success(t *testing.T) {
	chat := &stubChat{responses: []stubChatResponse{{text: "  down to business  "}}}
	c := NewOpenAICompletion(chat, "gpt-4o-mini", 0, 2, nil, nil)

	text, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "down to business", text)

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.InDelta(t, 0.4, req.Temperature, 0.001)
	assert.Equal(t, 180, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
}

func TestOpenAICompletion_RetriesRateLimit(t *testing.T) {
	chat := &stubChat{responses: []stubChatResponse{
		{err: &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}},
		{err: &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}},
		{text: "third time lucky"},
	}}
	c := NewOpenAICompletion(chat, "", 0, 2, nil, nil)

	text, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", text)
	assert.Len(t, chat.requests, 3)
}

func TestOpenAICompletion_NoRetryOnClientError(t *testing.T) {
	chat := &stubChat{responses: []stubChatResponse{
		{err: &openai.APIError{HTTPStatusCode: 400, Message: "bad request"}},
	}}
	c := NewOpenAICompletion(chat, "", 0, 2, nil, nil)

	_, err := c.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Len(t, chat.requests, 1, "4xx apart from 429 must not be retried")
}

func TestOpenAICompletion_RetryBudgetExhausted(t *testing.T) {
	chat := &stubChat{responses: []stubChatResponse{
		{err: &openai.APIError{HTTPStatusCode: 500}},
		{err: &openai.APIError{HTTPStatusCode: 500}},
		{err: &openai.APIError{HTTPStatusCode: 500}},
	}}
	c := NewOpenAICompletion(chat, "", 0, 2, nil, nil)

	_, err := c.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Len(t, chat.requests, 3, "initial call plus two retries")
}

func TestOpenAICompletion_EmptyText(t *testing.T) {
	chat := &stubChat{responses: []stubChatResponse{{text: ""}}}
	c := NewOpenAICompletion(chat, "", 0, 0, nil, nil)

	_, err := c.Complete(context.Background(), "system", "user")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestRetryableCompletionErr(t *testing.T) {
	assert.True(t, retryableCompletionErr(&openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, retryableCompletionErr(&openai.APIError{HTTPStatusCode: 502}))
	assert.True(t, retryableCompletionErr(context.DeadlineExceeded))
	assert.False(t, retryableCompletionErr(&openai.APIError{HTTPStatusCode: 401}))
	assert.False(t, retryableCompletionErr(errors.New("boom")))
	assert.False(t, retryableCompletionErr(context.Canceled))
}
