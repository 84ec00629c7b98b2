package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cliniclane/previsit-ai/pkg/logging"
)

var engineTracer = otel.Tracer("previsit.internal.intake.engine")

// Reply is the outbound side of one dialogue turn.
type Reply struct {
	Text         string
	Phase        Phase
	QuickReplies []string
}

// Engine is the phase state machine driving the interview. One inbound
// (userID, message) pair is a single logical read-modify-write of one
// session: load, evaluate/advance, persist.
type Engine struct {
	store     Store
	evaluator *Evaluator
	generator *QuestionGenerator
	guard     *Guardrail
	logger    *logging.Logger
	feedback  bool
	now       func() time.Time
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithFeedbackPhases toggles the optional SATISFACTION/RECOMMEND tail.
func WithFeedbackPhases(enabled bool) EngineOption {
	return func(e *Engine) {
		e.feedback = enabled
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the orchestrator around its collaborators.
func NewEngine(store Store, evaluator *Evaluator, generator *QuestionGenerator, guard *Guardrail, logger *logging.Logger, opts ...EngineOption) *Engine {
	if store == nil {
		panic("intake: store cannot be nil")
	}
	if evaluator == nil {
		panic("intake: evaluator cannot be nil")
	}
	if generator == nil {
		panic("intake: generator cannot be nil")
	}
	if guard == nil {
		panic("intake: guardrail cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		store:     store,
		evaluator: evaluator,
		generator: generator,
		guard:     guard,
		logger:    logger,
		feedback:  true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// resetKeywords are recognized upstream of phase-machine processing.
var resetKeywords = map[string]struct{}{
	"reset": {}, "restart": {}, "重新開始": {}, "重置": {},
}

// IsResetKeyword reports whether text asks for the interview to start over.
func IsResetKeyword(text string) bool {
	_, ok := resetKeywords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// HandleMessage processes one inbound patient message and returns the
// outbound reply. A store failure is a failed turn: silently dropping a
// clinical answer is unacceptable.
func (e *Engine) HandleMessage(ctx context.Context, userID, text string) (*Reply, error) {
	ctx, span := engineTracer.Start(ctx, "intake.turn")
	defer span.End()
	span.SetAttributes(attribute.String("previsit.user_id", userID))

	session, err := e.store.Load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: load session: %w", err)
	}

	if !session.Phase.Known() && session.Phase != "" {
		e.logger.Warn("unrecognized session phase, treating as terminal",
			"user_id", userID,
			"phase", string(session.Phase),
		)
	}
	phase := session.CurrentPhase()
	span.SetAttributes(attribute.String("previsit.phase", string(phase)))
	lang := session.Language.orDefault()

	switch {
	case phase == PhaseEnd:
		// Absorbing: fixed closing notice, no field mutation.
		return &Reply{Text: ClosingNotice(lang), Phase: PhaseEnd}, nil

	case phase == PhaseGreeting:
		// Language detection and immediate advancement; there is no prior
		// answer to validate.
		if session.Language == "" {
			session.Language = DetectLanguage(text)
		}
		return e.advance(ctx, userID, session, PhaseGreeting)
	}

	eval := e.evaluator.Evaluate(ctx, phase, text, session)
	if !eval.Accepted {
		reask := eval.Reask
		if reask == "" {
			reask = ReaskText(phase, lang)
		}
		// Rejection keeps the phase unchanged and writes nothing.
		return &Reply{
			Text:         e.guard.Filter(reask, lang),
			Phase:        phase,
			QuickReplies: QuickReplies(phase, lang),
		}, nil
	}

	session.SetAnswer(phase, strings.TrimSpace(text))
	return e.advance(ctx, userID, session, phase)
}

// advance moves the session past from, persists it, and produces the text for
// the new phase.
func (e *Engine) advance(ctx context.Context, userID string, session Session, from Phase) (*Reply, error) {
	next := from.Next()
	if !e.feedback && feedbackPhase(next) {
		next = PhaseEnd
	}
	session.Phase = next
	session.UpdatedAt = e.now().UTC()

	if err := e.store.Save(ctx, userID, session); err != nil {
		return nil, fmt.Errorf("intake: save session: %w", err)
	}

	lang := session.Language.orDefault()
	text := e.generator.NextQuestion(ctx, next, session)
	return &Reply{
		Text:         e.guard.Filter(text, lang),
		Phase:        next,
		QuickReplies: QuickReplies(next, lang),
	}, nil
}

// Reset clears the session back to GREETING. The confirmation reply keeps the
// language the patient was already using.
func (e *Engine) Reset(ctx context.Context, userID string) (*Reply, error) {
	ctx, span := engineTracer.Start(ctx, "intake.reset")
	defer span.End()

	session, err := e.store.Load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: load session: %w", err)
	}
	lang := session.Language.orDefault()

	if err := e.store.Save(ctx, userID, Session{}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: reset session: %w", err)
	}
	return &Reply{Text: ResetNotice(lang), Phase: PhaseGreeting}, nil
}

// Summary compiles the clinician-facing view of one session.
func (e *Engine) Summary(ctx context.Context, userID string) (string, error) {
	session, err := e.store.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("intake: load session: %w", err)
	}
	return Compile(userID, session), nil
}
