package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cliniclane/previsit-ai/internal/intake"
	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

// Dialogue is the conversation engine surface the webhook drives.
type Dialogue interface {
	HandleMessage(ctx context.Context, userID, text string) (*intake.Reply, error)
	Reset(ctx context.Context, userID string) (*intake.Reply, error)
}

// Messenger sends outbound LINE messages.
type Messenger interface {
	Reply(ctx context.Context, replyToken, text string, quickReplies []string) error
	Push(ctx context.Context, userID, text string, quickReplies []string) error
}

const dispatchTimeout = 60 * time.Second

// userKeyPrefix namespaces LINE identifiers in the session store so they can
// never collide with web-chat session ids.
const userKeyPrefix = "line:"

// Webhook handles LINE Messaging API callbacks. Each text message is
// acknowledged within the reply-token window and processed asynchronously;
// the real answer arrives as a push message. Turns for the same user are
// serialized, so rapid-fire messages cannot interleave their
// read-modify-write cycles.
type Webhook struct {
	channelSecret string
	dialogue      Dialogue
	messenger     Messenger
	logger        *logging.Logger
	metrics       *metrics.IntakeMetrics

	// dispatch is swapped out in tests to run turns synchronously.
	dispatch func(userID, text string)

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
	inflight  sync.WaitGroup
}

// NewWebhook wires the LINE callback handler.
func NewWebhook(channelSecret string, dialogue Dialogue, messenger Messenger, logger *logging.Logger, m *metrics.IntakeMetrics) *Webhook {
	if dialogue == nil {
		panic("line: dialogue cannot be nil")
	}
	if messenger == nil {
		panic("line: messenger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Webhook{
		channelSecret: channelSecret,
		dialogue:      dialogue,
		messenger:     messenger,
		logger:        logger,
		metrics:       m,
		userLocks:     make(map[string]*sync.Mutex),
	}
	w.dispatch = w.dispatchAsync
	return w
}

type webhookRequest struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string       `json:"type"`
	ReplyToken string       `json:"replyToken"`
	Source     eventSource  `json:"source"`
	Message    eventMessage `json:"message"`
}

type eventSource struct {
	UserID string `json:"userId"`
}

type eventMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (w *Webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	if !ValidSignature(w.channelSecret, body, r.Header.Get("X-Line-Signature")) {
		w.logger.Warn("line webhook signature mismatch")
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}

	for _, event := range req.Events {
		if event.Type != "message" || event.Message.Type != "text" || event.Source.UserID == "" {
			continue
		}
		w.handleTextEvent(r.Context(), event)
	}

	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("OK"))
}

func (w *Webhook) handleTextEvent(ctx context.Context, event webhookEvent) {
	text := strings.TrimSpace(event.Message.Text)
	userID := userKeyPrefix + event.Source.UserID

	if intake.IsResetKeyword(text) {
		reply, err := w.dialogue.Reset(ctx, userID)
		if err != nil {
			w.logger.Error("line reset failed", "user_id", userID, "error", err)
			w.metrics.ObserveTurn("line", "error")
			return
		}
		if err := w.messenger.Reply(ctx, event.ReplyToken, reply.Text, nil); err != nil {
			w.logger.Error("line reply failed", "user_id", userID, "error", err)
		}
		w.metrics.ObserveTurn("line", "reset")
		return
	}

	// Acknowledge inside the reply-token window; the token is single-use and
	// short-lived, so the full turn result goes out as a push instead.
	if err := w.messenger.Reply(ctx, event.ReplyToken, intake.AckNotice(ackLanguage(text)), nil); err != nil {
		w.logger.Error("line ack failed", "user_id", userID, "error", err)
	}

	w.dispatch(userID, text)
}

func (w *Webhook) dispatchAsync(userID, text string) {
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		w.runTurn(userID, text)
	}()
}

// runTurn executes one dialogue turn under the per-user lock and pushes the
// result.
func (w *Webhook) runTurn(userID, text string) {
	lock := w.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	start := time.Now()
	reply, err := w.dialogue.HandleMessage(ctx, userID, text)
	if err != nil {
		w.logger.Error("line turn failed", "user_id", userID, "error", err)
		w.metrics.ObserveTurn("line", "error")
		notice := turnFailedNotice(ackLanguage(text))
		if pushErr := w.messenger.Push(ctx, userID, notice, nil); pushErr != nil {
			w.logger.Error("line failure notice push failed", "user_id", userID, "error", pushErr)
		}
		return
	}
	w.metrics.ObserveTurn("line", "ok")
	w.metrics.ObserveTurnLatency("line", time.Since(start).Seconds())

	if err := w.messenger.Push(ctx, userID, reply.Text, reply.QuickReplies); err != nil {
		w.logger.Error("line push failed", "user_id", userID, "error", err)
	}
}

// Drain waits for in-flight asynchronous turns, for graceful shutdown.
func (w *Webhook) Drain() {
	w.inflight.Wait()
}

func (w *Webhook) userLock(userID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		w.userLocks[userID] = lock
	}
	return lock
}

// ackLanguage picks the receipt language before the session is loaded: Han
// characters select Chinese, Latin letters English, anything else (digits,
// stickers pasted as text) defaults to Chinese.
func ackLanguage(text string) intake.Language {
	if intake.DetectLanguage(text) == intake.LanguageChinese {
		return intake.LanguageChinese
	}
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return intake.LanguageEnglish
		}
	}
	return intake.LanguageChinese
}

func turnFailedNotice(lang intake.Language) string {
	if lang == intake.LanguageEnglish {
		return "Sorry, I couldn't save that just now. Could you send it again in a moment?"
	}
	return "不好意思，剛剛沒有記錄成功，可以稍後再傳一次嗎？"
}
