package intake

import (
	"fmt"
	"strings"
)

// systemCategory maps free-text symptom mentions onto a body system so the
// clinician sees a coarse triage hint above the raw transcript fields.
type systemCategory struct {
	name     string
	keywords []string
}

// Keyword lists are bilingual; matching is substring, lowercase.
var systemCategories = []systemCategory{
	{"Cardiovascular", []string{
		"chest pain", "palpitation", "chest tightness", "胸痛", "胸悶", "心悸", "心跳",
	}},
	{"Respiratory", []string{
		"cough", "shortness of breath", "wheez", "sputum", "咳嗽", "咳", "喘", "呼吸困難", "痰",
	}},
	{"Gastrointestinal", []string{
		"nausea", "vomit", "diarrhea", "constipation", "abdominal", "stomach",
		"噁心", "嘔吐", "拉肚子", "腹瀉", "便秘", "肚子", "腹痛", "胃",
	}},
	{"Neurological", []string{
		"headache", "dizz", "numb", "weakness", "seizure", "slurred",
		"頭痛", "頭暈", "暈眩", "麻木", "無力", "抽搐", "口齒不清",
	}},
	{"Musculoskeletal", []string{
		"joint", "back pain", "muscle", "sprain", "關節", "腰痛", "背痛", "肌肉", "扭傷",
	}},
	{"Urinary", []string{
		"urinat", "dysuria", "blood in urine", "頻尿", "排尿", "血尿", "解尿",
	}},
	{"Constitutional / Infectious", []string{
		"fever", "chills", "fatigue", "weight loss", "night sweat",
		"發燒", "發冷", "畏寒", "疲倦", "體重減輕", "盜汗",
	}},
}

// redFlag pairs a symptom pattern with a one-line caution for the clinician.
// Every keyword in a group must appear for the flag to fire.
type redFlag struct {
	groups  [][]string
	caution string
}

var redFlags = []redFlag{
	{
		groups:  [][]string{{"sudden", "severe", "headache"}, {"突然", "劇烈", "頭痛"}, {"突發", "頭痛"}},
		caution: "Sudden severe headache reported — consider urgent evaluation for intracranial pathology.",
	},
	{
		groups:  [][]string{{"chest pain", "breath"}, {"chest pain", "dyspnea"}, {"胸痛", "喘"}, {"胸痛", "呼吸"}},
		caution: "Chest pain with dyspnea reported — consider urgent cardiopulmonary evaluation.",
	},
	{
		groups:  [][]string{{"numb", "one side"}, {"weakness", "one side"}, {"slurred"}, {"單側", "麻"}, {"單側", "無力"}, {"口齒不清"}},
		caution: "Possible focal neurologic deficit reported — consider urgent stroke assessment.",
	},
}

const summaryDisclaimer = "Generated from patient self-report for pre-visit preparation only. Not a diagnosis; verify all items with the patient."

// Compile renders a session into the fixed-order plain-text summary shown on
// the clinician dashboard. It is deterministic for a given session and never
// invents content for fields the patient did not answer.
func Compile(id string, s Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s\n", id)
	fmt.Fprintf(&b, "Interview phase: %s\n", s.CurrentPhase())
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Last updated: %s\n", s.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}

	section(&b, "Chief complaint", s.ChiefComplaint)

	if s.HPI != (HPI{}) {
		b.WriteString("\nHistory of present illness:\n")
		item(&b, "Onset", s.HPI.Onset)
		item(&b, "Triggers / relief", s.HPI.TriggersRelief)
		item(&b, "Quality / location", s.HPI.QualitySite)
		item(&b, "Severity (0-10)", s.HPI.Severity)
		item(&b, "Associated symptoms", s.HPI.Associated)
	}

	section(&b, "Review of systems", s.ReviewOfSystems)
	section(&b, "Past medical history", s.PastMedicalHistory)
	section(&b, "Medications / allergies", s.MedicationsAllergies)
	section(&b, "Family / social history", s.FamilySocialHistory)

	if s.Satisfaction != "" || s.Recommend != "" {
		b.WriteString("\nPatient feedback:\n")
		item(&b, "Satisfaction", s.Satisfaction)
		item(&b, "Would recommend", s.Recommend)
	}

	if systems := matchSystems(s); len(systems) > 0 {
		b.WriteString("\nSystems mentioned: " + strings.Join(systems, ", ") + "\n")
	}
	for _, caution := range matchRedFlags(s) {
		b.WriteString("\n[!] " + caution + "\n")
	}

	b.WriteString("\n" + summaryDisclaimer + "\n")
	return b.String()
}

func section(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "\n%s: %s\n", label, value)
}

func item(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  - %s: %s\n", label, value)
}

// symptomText concatenates the free-text fields that describe symptoms, for
// category and red-flag matching. Feedback fields are excluded.
func symptomText(s Session) string {
	parts := []string{
		s.ChiefComplaint,
		s.HPI.Onset, s.HPI.TriggersRelief, s.HPI.QualitySite, s.HPI.Severity, s.HPI.Associated,
		s.ReviewOfSystems,
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func matchSystems(s Session) []string {
	text := symptomText(s)
	var out []string
	for _, cat := range systemCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				out = append(out, cat.name)
				break
			}
		}
	}
	return out
}

func matchRedFlags(s Session) []string {
	text := symptomText(s)
	var out []string
	for _, rf := range redFlags {
		for _, group := range rf.groups {
			if containsAll(text, group) {
				out = append(out, rf.caution)
				break
			}
		}
	}
	return out
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}
