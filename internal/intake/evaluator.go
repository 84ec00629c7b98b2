package intake

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
	"github.com/cliniclane/previsit-ai/pkg/logging"
)

// Evaluation is the outcome of gating one answer.
type Evaluation struct {
	Accepted bool
	// Reask carries the re-prompt when the answer was rejected.
	Reask string
}

// answerVerdict is what a single gate rule decided.
type answerVerdict int

const (
	verdictPass    answerVerdict = iota // rule does not apply, try the next one
	verdictAccept                       // substantive, close the phase
	verdictSuspect                      // looks like a non-answer, escalate
)

type answerRule struct {
	name string
	fn   func(phase Phase, normalized string) answerVerdict
}

// Evaluator decides whether an answer is substantive enough to advance the
// phase. The rule set is biased toward availability: only inputs flagged as
// dismissive ever escalate to the completion service, and a failed escalation
// still accepts.
type Evaluator struct {
	classifier CompletionClient // nil disables escalation
	logger     *logging.Logger
	metrics    *metrics.IntakeMetrics
	rules      []answerRule
}

// NewEvaluator builds the tiered answer gate. A nil classifier turns the
// dismissive escalation into unconditional acceptance.
func NewEvaluator(classifier CompletionClient, logger *logging.Logger, m *metrics.IntakeMetrics) *Evaluator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Evaluator{
		classifier: classifier,
		logger:     logger,
		metrics:    m,
		// The dismissive carve-out runs first: tokens like "whatever"
		// clear the length heuristic yet are still non-answers.
		rules: []answerRule{
			{name: "dismissive", fn: ruleDismissive},
			{name: "min_length", fn: ruleMinLength},
			{name: "phase_structure", fn: rulePhaseStructure},
		},
	}
}

// Evaluate gates rawAnswer for the current phase. Rules run in order and
// short-circuit; anything not explicitly flagged dismissive is accepted.
func (e *Evaluator) Evaluate(ctx context.Context, phase Phase, rawAnswer string, s Session) Evaluation {
	normalized := normalizeAnswer(rawAnswer)

	for _, rule := range e.rules {
		switch rule.fn(phase, normalized) {
		case verdictAccept:
			return Evaluation{Accepted: true}
		case verdictSuspect:
			return e.escalate(ctx, phase, rawAnswer, s)
		}
	}
	// Default-permissive: short-but-plausible input is not rejected.
	return Evaluation{Accepted: true}
}

func (e *Evaluator) escalate(ctx context.Context, phase Phase, rawAnswer string, s Session) Evaluation {
	lang := s.Language.orDefault()
	if e.classifier == nil {
		return Evaluation{Accepted: true}
	}

	reply, err := e.classifier.Complete(ctx, classifySystemPrompt(lang), classifyUserContext(phase, rawAnswer, lang))
	if err != nil {
		// Never block progress on external-service failure.
		e.logger.Warn("answer classification failed, accepting answer",
			"phase", string(phase),
			"error", err,
		)
		e.metrics.ObserveCompletionCall("classify", "error")
		return Evaluation{Accepted: true}
	}
	e.metrics.ObserveCompletionCall("classify", "ok")

	trimmed := strings.TrimSpace(reply)
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "ACCEPT"):
		return Evaluation{Accepted: true}
	case strings.HasPrefix(upper, "REASK"):
		reask := strings.TrimSpace(strings.TrimPrefix(trimmed[len("REASK"):], ":"))
		if reask == "" {
			reask = ReaskText(phase, lang)
		}
		return Evaluation{Accepted: false, Reask: reask}
	default:
		// Unparseable verdicts count as acceptance, same as a failed call.
		return Evaluation{Accepted: true}
	}
}

const minSubstantiveRunes = 6

func normalizeAnswer(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func ruleMinLength(_ Phase, normalized string) answerVerdict {
	if utf8.RuneCountInString(normalized) >= minSubstantiveRunes {
		return verdictAccept
	}
	return verdictPass
}

var (
	timeUnitPattern = regexp.MustCompile(`(?i)\b(day|days|week|weeks|month|months|year|years|hour|hours|minute|minutes)\b|[天日月年]|週|周|星期|小時|鐘頭|分鐘`)
	numberPattern   = regexp.MustCompile(`[0-9]|[零一二兩三四五六七八九十半幾]`)
	digitRunPattern = regexp.MustCompile(`[0-9]+`)
)

func rulePhaseStructure(phase Phase, normalized string) answerVerdict {
	switch phase {
	case PhaseOnset:
		// A quantity plus a time unit is a complete onset answer ("3 days", "3天").
		if numberPattern.MatchString(normalized) && timeUnitPattern.MatchString(normalized) {
			return verdictAccept
		}
	case PhaseSeverity:
		for _, run := range digitRunPattern.FindAllString(normalized, -1) {
			if n, err := strconv.Atoi(run); err == nil && n >= 0 && n <= 10 {
				return verdictAccept
			}
		}
		if v, ok := chineseSeverity(normalized); ok && v >= 0 && v <= 10 {
			return verdictAccept
		}
	}
	return verdictPass
}

var chineseDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '兩': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9, '十': 10,
}

func chineseSeverity(text string) (int, bool) {
	for _, r := range text {
		if v, ok := chineseDigits[r]; ok {
			return v, true
		}
	}
	return 0, false
}

// dismissiveTokens is the closed set of exact non-answers. Plain negations
// ("no", "沒有") are deliberately absent: at several phases they are real
// answers.
var dismissiveTokens = map[string]struct{}{
	"dont know": {}, "don't know": {}, "idk": {}, "dunno": {},
	"whatever": {}, "meh": {}, "你猜": {}, "不知道": {}, "不清楚": {},
	"隨便": {}, "算了": {},
}

var laughterPattern = regexp.MustCompile(`^(?:ha|he|lol|哈|呵|嘻|笑)+$`)

func ruleDismissive(_ Phase, normalized string) answerVerdict {
	folded := strings.ToLower(strings.Trim(normalized, ".,!?~。，！？～ "))
	if folded == "" {
		return verdictSuspect
	}
	if _, ok := dismissiveTokens[folded]; ok {
		return verdictSuspect
	}
	if laughterPattern.MatchString(folded) {
		return verdictSuspect
	}
	if repeatedFiller(folded) {
		return verdictSuspect
	}
	return verdictPass
}

// repeatedFiller catches strings that are one rune repeated ("嗯嗯", "....").
func repeatedFiller(text string) bool {
	var first rune
	count := 0
	for _, r := range text {
		if count == 0 {
			first = r
		} else if r != first {
			return false
		}
		count++
	}
	return count >= 2 && !unicode.IsDigit(first)
}

func classifySystemPrompt(lang Language) string {
	language := "Traditional Chinese"
	if lang.orDefault() == LanguageEnglish {
		language = "English"
	}
	return "You validate one patient answer in a scripted pre-visit intake interview.\n" +
		"If the answer is a usable response to the topic, reply with exactly: ACCEPT\n" +
		"Otherwise reply with: REASK: <a single empathetic question in " + language + " re-asking about the same topic>\n" +
		"The replacement question must never contain a diagnosis, a medication or dosage suggestion, or advice to delay or skip seeing a doctor.\n" +
		"Reply with nothing else."
}

func classifyUserContext(phase Phase, rawAnswer string, lang Language) string {
	b := strings.Builder{}
	b.WriteString("Topic: " + phaseTopics[phase] + "\n")
	b.WriteString("Question asked: " + StaticQuestion(phase, lang) + "\n")
	b.WriteString("Patient answered: " + rawAnswer)
	return b.String()
}
