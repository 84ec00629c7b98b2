package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"
)

const (
	defaultBaseURL       = "https://api.line.me/v2/bot"
	maxQuickReplyLabel   = 20
	maxQuickReplyItems   = 13
	defaultClientTimeout = 7 * time.Second
)

// Config controls how the LINE Messaging API client behaves.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client wraps the LINE Messaging API reply and push endpoints.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("line: channel access token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultClientTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  httpClient,
		maxRetries:  maxRetries,
		backoff:     backoff,
		logger:      logger,
	}, nil
}

type textMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *quickReply `json:"quickReply,omitempty"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type quickReplyItem struct {
	Type   string           `json:"type"`
	Action quickReplyAction `json:"action"`
}

type quickReplyAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Reply answers an inbound event with its one-shot reply token.
func (c *Client) Reply(ctx context.Context, replyToken, text string, quickReplies []string) error {
	body, err := json.Marshal(struct {
		ReplyToken string        `json:"replyToken"`
		Messages   []textMessage `json:"messages"`
	}{
		ReplyToken: replyToken,
		Messages:   []textMessage{newTextMessage(text, quickReplies)},
	})
	if err != nil {
		return fmt.Errorf("line: marshal reply body: %w", err)
	}
	return c.invoke(ctx, "/message/reply", body)
}

// Push sends a message outside the reply-token window.
func (c *Client) Push(ctx context.Context, userID, text string, quickReplies []string) error {
	body, err := json.Marshal(struct {
		To       string        `json:"to"`
		Messages []textMessage `json:"messages"`
	}{
		To:       userID,
		Messages: []textMessage{newTextMessage(text, quickReplies)},
	})
	if err != nil {
		return fmt.Errorf("line: marshal push body: %w", err)
	}
	return c.invoke(ctx, "/message/push", body)
}

func newTextMessage(text string, quickReplies []string) textMessage {
	msg := textMessage{Type: "text", Text: text}
	if len(quickReplies) == 0 {
		return msg
	}
	if len(quickReplies) > maxQuickReplyItems {
		quickReplies = quickReplies[:maxQuickReplyItems]
	}
	items := make([]quickReplyItem, 0, len(quickReplies))
	for _, label := range quickReplies {
		items = append(items, quickReplyItem{
			Type: "action",
			Action: quickReplyAction{
				Type:  "message",
				Label: truncateLabel(label),
				Text:  label,
			},
		})
	}
	msg.QuickReply = &quickReply{Items: items}
	return msg
}

// truncateLabel enforces the API's 20-character label limit. The sent text
// keeps the full string.
func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxQuickReplyLabel {
		return label
	}
	return string(runes[:maxQuickReplyLabel])
}

func (c *Client) invoke(ctx context.Context, path string, body []byte) error {
	fullURL := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("line: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt == c.maxRetries {
				return fmt.Errorf("line: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("line: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		apiErr := fmt.Errorf("line: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
		if attempt < c.maxRetries && retryableStatus(resp.StatusCode) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		return apiErr
	}
	if lastErr != nil {
		return lastErr
	}
	return errors.New("line: request failed without response")
}

func retryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(path string, attempt, status int, err error) {
	c.logger.Warn("line api retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}
