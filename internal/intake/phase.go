package intake

// Phase is a named step in the fixed interview sequence. It determines which
// Session field is currently writable.
type Phase string

const (
	PhaseGreeting             Phase = "GREETING"
	PhaseChiefComplaint       Phase = "CHIEF_COMPLAINT"
	PhaseOnset                Phase = "ONSET"
	PhaseTriggersRelief       Phase = "TRIGGERS_RELIEF"
	PhaseQualitySite          Phase = "QUALITY_SITE"
	PhaseSeverity             Phase = "SEVERITY"
	PhaseAssociatedSymptoms   Phase = "ASSOCIATED_SYMPTOMS"
	PhaseReviewOfSystems      Phase = "REVIEW_OF_SYSTEMS"
	PhasePastHistory          Phase = "PAST_HISTORY"
	PhaseMedicationsAllergies Phase = "MEDICATIONS_ALLERGIES"
	PhaseFamilySocialHistory  Phase = "FAMILY_SOCIAL_HISTORY"
	PhaseSatisfaction         Phase = "SATISFACTION"
	PhaseRecommend            Phase = "RECOMMEND"
	PhaseEnd                  Phase = "END"
)

// phaseOrder is the strict total order of the interview. No phase may be
// skipped forward and rejection never moves a session backward.
var phaseOrder = []Phase{
	PhaseGreeting,
	PhaseChiefComplaint,
	PhaseOnset,
	PhaseTriggersRelief,
	PhaseQualitySite,
	PhaseSeverity,
	PhaseAssociatedSymptoms,
	PhaseReviewOfSystems,
	PhasePastHistory,
	PhaseMedicationsAllergies,
	PhaseFamilySocialHistory,
	PhaseSatisfaction,
	PhaseRecommend,
	PhaseEnd,
}

var phaseIndex = func() map[Phase]int {
	idx := make(map[Phase]int, len(phaseOrder))
	for i, p := range phaseOrder {
		idx[p] = i
	}
	return idx
}()

// Known reports whether p is a defined phase value.
func (p Phase) Known() bool {
	_, ok := phaseIndex[p]
	return ok
}

// Terminal reports whether p is the absorbing END phase.
func (p Phase) Terminal() bool {
	return p == PhaseEnd
}

// Next returns the successor phase in the full interview order. END is its
// own successor.
func (p Phase) Next() Phase {
	i, ok := phaseIndex[p]
	if !ok || i >= len(phaseOrder)-1 {
		return PhaseEnd
	}
	return phaseOrder[i+1]
}

// feedbackPhase reports whether p belongs to the optional experience-feedback
// tail of the interview.
func feedbackPhase(p Phase) bool {
	return p == PhaseSatisfaction || p == PhaseRecommend
}
