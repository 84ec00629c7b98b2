package intake

// QuickReplies returns the small fixed set of suggested replies for a phase,
// or nil when free text is expected. Presentation-only: orchestration
// correctness never depends on these.
func QuickReplies(phase Phase, lang Language) []string {
	en := lang.orDefault() == LanguageEnglish
	switch phase {
	case PhaseSeverity:
		return []string{"1", "3", "5", "7", "10"}
	case PhaseOnset:
		if en {
			return []string{"Since today", "A few days", "Over a week"}
		}
		return []string{"今天才開始", "持續幾天了", "超過一星期"}
	case PhaseSatisfaction:
		if en {
			return []string{"Very helpful", "It was okay", "Could be better"}
		}
		return []string{"很有幫助", "還可以", "可以更好"}
	case PhaseRecommend:
		if en {
			return []string{"Yes", "Maybe", "No"}
		}
		return []string{"願意", "看情況", "不會"}
	}
	return nil
}
