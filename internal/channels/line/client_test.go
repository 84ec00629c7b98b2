package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ReplyPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, AccessToken: "token-123"})
	require.NoError(t, err)

	err = c.Reply(context.Background(), "reply-tok", "下一題", []string{"1", "3", "5"})
	require.NoError(t, err)

	assert.Equal(t, "/message/reply", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "reply-tok", gotBody["replyToken"])

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "text", msg["type"])
	assert.Equal(t, "下一題", msg["text"])
	items := msg["quickReply"].(map[string]any)["items"].([]any)
	assert.Len(t, items, 3)
}

func TestClient_PushWithoutQuickReplies(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, AccessToken: "token-123"})
	require.NoError(t, err)

	require.NoError(t, c.Push(context.Background(), "U123", "hello", nil))
	assert.Equal(t, "U123", gotBody["to"])
	msg := gotBody["messages"].([]any)[0].(map[string]any)
	_, hasQuickReply := msg["quickReply"]
	assert.False(t, hasQuickReply, "empty quick replies must be omitted entirely")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		AccessToken: "token",
		MaxRetries:  2,
		Backoff:     time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, c.Push(context.Background(), "U1", "hi", nil))
	assert.Equal(t, 3, calls)
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid reply token"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, AccessToken: "token", MaxRetries: 2, Backoff: time.Millisecond})
	require.NoError(t, err)

	err = c.Reply(context.Background(), "expired", "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 1, calls)
}

func TestClient_RequiresAccessToken(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", truncateLabel("short"))
	long := strings.Repeat("好", 25)
	assert.Equal(t, strings.Repeat("好", 20), truncateLabel(long))
}
