package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

// QuestionGenerator produces the next question's wording. When dynamic
// generation is disabled or the completion service fails, the per-phase static
// text is returned verbatim.
type QuestionGenerator struct {
	completion CompletionClient // nil disables dynamic phrasing
	guard      *Guardrail
	logger     *logging.Logger
	metrics    *metrics.IntakeMetrics
}

// NewQuestionGenerator wires the generator. Passing a nil completion client
// pins every question to the static catalogue.
func NewQuestionGenerator(completion CompletionClient, guard *Guardrail, logger *logging.Logger, m *metrics.IntakeMetrics) *QuestionGenerator {
	if guard == nil {
		panic("intake: guardrail cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QuestionGenerator{
		completion: completion,
		guard:      guard,
		logger:     logger,
		metrics:    m,
	}
}

// NextQuestion returns the outbound text for entering phase. Dynamic phrasing
// is best-effort; any failure, empty reply or guardrail match falls back to
// the static string, which is the trusted floor.
func (g *QuestionGenerator) NextQuestion(ctx context.Context, phase Phase, s Session) string {
	lang := s.Language.orDefault()
	static := StaticQuestion(phase, lang)

	if g.completion == nil {
		return static
	}

	text, err := g.completion.Complete(ctx, questionSystemPrompt(lang), questionUserContext(phase, s, static, lang))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			g.logger.Warn("dynamic question generation failed, using static text",
				"phase", string(phase),
				"error", err,
			)
		}
		g.metrics.ObserveStaticFallback(string(phase))
		return static
	}
	if cat, matched := g.guard.Check(text); matched {
		g.logger.Warn("generated question blocked by guardrail, using static text",
			"phase", string(phase),
			"category", string(cat),
		)
		g.metrics.ObserveGuardrailBlock(string(cat))
		g.metrics.ObserveStaticFallback(string(phase))
		return static
	}
	return text
}

func questionSystemPrompt(lang Language) string {
	language := "繁體中文"
	if lang.orDefault() == LanguageEnglish {
		language = "English"
	}
	return fmt.Sprintf(`You are a pre-visit intake assistant collecting a patient's history before they see a doctor.
Strictly forbidden:
- stating or implying a diagnosis, disease name, or differential probability
- suggesting treatments, medications, dosages, or over-the-counter remedies
- advising the patient to delay or skip seeing a doctor
Allowed:
- administrative guidance (waiting, bringing documents)
- if critical warning signs appear (worsening breathing, fainting, sudden severe chest pain), reminding the patient to alert on-site staff immediately (this is not a diagnosis)
Tone: %s, warm, at most 2-3 sentences; briefly acknowledge the patient's feelings first, then ask the next question.
Output only the text to send to the patient, with no markup.`, language)
}

func questionUserContext(phase Phase, s Session, static string, lang Language) string {
	b := strings.Builder{}
	b.WriteString("Collected so far:\n")
	for _, p := range phaseOrder {
		if answer := s.Answer(p); answer != "" {
			b.WriteString(fmt.Sprintf("- %s: %s\n", phaseTopics[p], answer))
		}
	}
	b.WriteString(fmt.Sprintf("\nNext topic: %s.\n", phaseTopics[phase]))
	b.WriteString(fmt.Sprintf("Rephrase the following question naturally in the patient's language (%s), keeping exactly this topic:\n%s", lang.orDefault(), static))
	return b.String()
}
