package intake

import (
	"regexp"
	"strings"

	"github.com/cliniclane/previsit-ai/internal/observability/metrics"
)

// GuardrailCategory labels the class of disallowed clinical content a piece of
// generated text matched.
type GuardrailCategory string

const (
	GuardrailNone       GuardrailCategory = ""
	GuardrailDiagnosis  GuardrailCategory = "DIAGNOSIS"
	GuardrailMedication GuardrailCategory = "MEDICATION"
	GuardrailSkipCare   GuardrailCategory = "SKIP_CARE"
	GuardrailDelayCare  GuardrailCategory = "DELAY_CARE"
)

type guardrailPattern struct {
	regex   *regexp.Regexp
	keyword string
}

// Guardrail is the deterministic post-filter applied to every piece of
// generated natural-language output before it reaches a patient, regardless of
// which component produced it.
type Guardrail struct {
	patterns map[GuardrailCategory][]*guardrailPattern
	order    []GuardrailCategory
	metrics  *metrics.IntakeMetrics
}

// NewGuardrail builds the denylist filter.
func NewGuardrail(m *metrics.IntakeMetrics) *Guardrail {
	g := &Guardrail{
		patterns: make(map[GuardrailCategory][]*guardrailPattern),
		order: []GuardrailCategory{
			GuardrailDiagnosis,
			GuardrailMedication,
			GuardrailSkipCare,
			GuardrailDelayCare,
		},
		metrics: m,
	}

	// Diagnostic assertions ("you have / this looks like <condition>").
	g.patterns[GuardrailDiagnosis] = []*guardrailPattern{
		{regex: regexp.MustCompile(`(診斷|判斷|我覺得你是|你應該是|看起來是).{0,10}(感冒|流感|心肌|中風|骨折|肺炎|腸胃炎|.*病)`), keyword: "診斷"},
		{regex: regexp.MustCompile(`(?i)\byou\s+(probably\s+|likely\s+|might\s+)?have\s+(a\s+|an\s+|the\s+)?(flu|cold|covid|pneumonia|stroke|fracture|gastroenteritis|appendicitis|infection|migraine|ulcer)\b`), keyword: "you have"},
		{regex: regexp.MustCompile(`(?i)\bthis\s+(looks|sounds)\s+like\s+(a\s+|an\s+)?\w+(itis|osis|emia|oma)\b`), keyword: "looks like"},
		{regex: regexp.MustCompile(`(?i)\b(it'?s|it\s+is)\s+(probably|likely|definitely)\s+(a\s+|an\s+)?(flu|cold|covid|pneumonia|stroke|fracture|gastroenteritis|appendicitis|infection|migraine)\b`), keyword: "it is probably"},
	}

	// Medication or dosage suggestions.
	g.patterns[GuardrailMedication] = []*guardrailPattern{
		// Requires an advice verb so the intake question about current
		// medications ("平常有在吃的藥嗎") stays clean.
		{regex: regexp.MustCompile(`(建議|可以|不妨|試試|記得).{0,6}(吃|服用).{0,10}(藥|普拿疼|止痛藥|抗生素|消炎藥)`), keyword: "服藥"},
		{regex: regexp.MustCompile(`(?i)\b(take|try|use)\s+(some\s+|a\s+|an\s+)?(ibuprofen|acetaminophen|paracetamol|tylenol|aspirin|antibiotics?|painkillers?|medication|pills?)\b`), keyword: "take medication"},
		{regex: regexp.MustCompile(`(?i)\b\d+\s?(mg|mcg|ml)\b`), keyword: "dosage"},
	}

	// Instructions to defer or skip seeking care.
	g.patterns[GuardrailSkipCare] = []*guardrailPattern{
		{regex: regexp.MustCompile(`(不用|先不要|不需要).{0,5}(看醫生|急診|就醫)`), keyword: "不用就醫"},
		{regex: regexp.MustCompile(`(?i)\b(no\s+need\s+to\s+(see|visit)|you\s+can\s+skip|don'?t\s+(need\s+to\s+)?(see|visit))\s+(a\s+|the\s+)?(doctor|er|emergency)`), keyword: "no need doctor"},
	}

	// Instructions to delay care to a future time.
	g.patterns[GuardrailDelayCare] = []*guardrailPattern{
		{regex: regexp.MustCompile(`(明天再|改天再|之後再).{0,8}(看|就醫|處理)`), keyword: "延後就醫"},
		{regex: regexp.MustCompile(`(?i)\b(wait\s+until\s+(tomorrow|next\s+week)|see\s+how\s+it\s+goes|come\s+back\s+(tomorrow|later|next\s+week))\b`), keyword: "wait until"},
	}

	return g
}

const safeFallbackZH = "這一部分需要醫師親自評估。我已經幫你把狀況記下來，等一下醫師會優先看到你的重點。如果此刻症狀突然變得很嚴重（像是呼吸困難惡化、快昏倒、劇烈疼痛瞬間加劇），請立刻告知現場人員或尋求急救協助。"

const safeFallbackEN = "That part needs to be assessed by the doctor in person. I've noted everything down and the doctor will see your key points shortly. If your symptoms suddenly get much worse right now (worsening breathing, near-fainting, sharply escalating pain), please alert the on-site staff or seek emergency help immediately."

// SafeFallback returns the fixed replacement message for blocked output.
func SafeFallback(lang Language) string {
	if lang.orDefault() == LanguageEnglish {
		return safeFallbackEN
	}
	return safeFallbackZH
}

// Check reports the first denylist category the text matches, if any.
func (g *Guardrail) Check(text string) (GuardrailCategory, bool) {
	if strings.TrimSpace(text) == "" {
		return GuardrailNone, false
	}
	for _, cat := range g.order {
		for _, p := range g.patterns[cat] {
			if p.regex.MatchString(text) {
				return cat, true
			}
		}
	}
	return GuardrailNone, false
}

// Filter returns text unchanged when it is clean, otherwise the entire output
// is replaced with the fixed safe-fallback message. Replacement is always
// all-or-nothing; partial redaction would not preserve the safety guarantee.
func (g *Guardrail) Filter(text string, lang Language) string {
	if strings.TrimSpace(text) == "" {
		return SafeFallback(lang)
	}
	if cat, matched := g.Check(text); matched {
		g.metrics.ObserveGuardrailBlock(string(cat))
		return SafeFallback(lang)
	}
	return text
}
