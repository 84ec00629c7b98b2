package intake

// Static question catalogue. These strings are the unconditional correctness
// floor: the interview can always complete to END using only this text, with
// zero external calls.

var staticQuestionsZH = map[Phase]string{
	PhaseChiefComplaint:       "嗨～我是預診小幫手。我會把你現在最不舒服、最想讓醫師知道的重點記下來，醫師看診時會優先看到這些。我不是醫師，不會開藥或做診斷喔！今天你主要哪裡不舒服呢？",
	PhaseOnset:                "這個狀況大概是什麼時候開始的？持續多久了呢？例如：3 天、兩個星期。",
	PhaseTriggersRelief:       "有沒有什麼情況會讓它更不舒服？或是做了什麼、休息一下會比較緩解？",
	PhaseQualitySite:          "這種不舒服比較像哪一種？例如：刺痛、悶悶壓著、灼熱？主要在身體的哪個位置呢？",
	PhaseSeverity:             "如果用 0 到 10 分來形容，0 是完全不會不舒服、10 是這輩子最難受，你會給現在的感覺幾分？",
	PhaseAssociatedSymptoms:   "還有一起發生別的狀況嗎？像是發燒、冒冷汗、呼吸很喘、想吐、頭暈，或手腳麻木？",
	PhaseReviewOfSystems:      "除了剛剛說的，最近身體其他地方有沒有什麼變化？像是食慾、睡眠、體重、排便或排尿？",
	PhasePastHistory:          "你以前有沒有慢性病或開過刀？（我會寫給醫師，醫師可以更快判斷風險）",
	PhaseMedicationsAllergies: "你平常有固定在吃的藥嗎？有沒有對藥物或食物過敏？",
	PhaseFamilySocialHistory:  "家人有沒有類似的狀況或重大疾病？平常有抽菸、喝酒的習慣嗎？",
	PhaseSatisfaction:         "快完成了！想問問今天這樣的預診方式，你覺得如何？有沒有哪裡可以做得更好？",
	PhaseRecommend:            "最後一題：你會願意推薦其他來看診的人使用這個預診小幫手嗎？",
	PhaseEnd:                  "謝謝你告訴我，我已經整理好了。等一下醫師看診時，會先看到你剛剛說的重點。如果此刻有突然變得很喘、快昏倒或劇烈疼痛加劇，請立刻告訴現場人員，這真的很重要。",
}

var staticQuestionsEN = map[Phase]string{
	PhaseChiefComplaint:       "Hi! I'm the pre-visit assistant. I'll note down what's bothering you most so the doctor sees your key points first. I'm not a doctor and won't diagnose or prescribe. What's troubling you most today?",
	PhaseOnset:                "When did this roughly start, and how long has it been going on? For example: 3 days, two weeks.",
	PhaseTriggersRelief:       "Does anything make it worse? And is there anything that helps relieve it?",
	PhaseQualitySite:          "What does the discomfort feel like — sharp, dull and pressing, or burning? And where on your body is it mainly?",
	PhaseSeverity:             "On a scale of 0 to 10, where 0 is no discomfort and 10 is the worst you've ever felt, how would you rate it right now?",
	PhaseAssociatedSymptoms:   "Has anything else come along with it, like fever, cold sweats, shortness of breath, nausea, dizziness, or numbness in your limbs?",
	PhaseReviewOfSystems:      "Apart from what you've mentioned, any other recent changes — appetite, sleep, weight, bowel or urinary habits?",
	PhasePastHistory:          "Do you have any chronic conditions or past surgeries? I'll pass this on so the doctor can assess risks faster.",
	PhaseMedicationsAllergies: "Do you take any regular medications? Any allergies to drugs or food?",
	PhaseFamilySocialHistory:  "Has anyone in your family had similar problems or major illnesses? Do you smoke or drink?",
	PhaseSatisfaction:         "Almost done! How did you find this pre-visit interview? Anything we could do better?",
	PhaseRecommend:            "Last one: would you recommend this assistant to other patients waiting to be seen?",
	PhaseEnd:                  "Thank you for telling me — I've put it all together. The doctor will see your key points first at your visit. If you suddenly feel much worse right now — very short of breath, about to faint, or sharply escalating pain — please tell the on-site staff immediately.",
}

// StaticQuestion returns the canned text the assistant sends when entering a
// phase. For END it is the interview completion message.
func StaticQuestion(phase Phase, lang Language) string {
	catalogue := staticQuestionsZH
	if lang.orDefault() == LanguageEnglish {
		catalogue = staticQuestionsEN
	}
	if q, ok := catalogue[phase]; ok {
		return q
	}
	return ClosingNotice(lang)
}

// ClosingNotice is the fixed reply for any message that arrives after END.
func ClosingNotice(lang Language) string {
	if lang.orDefault() == LanguageEnglish {
		return "I've already passed your key points to the doctor — they'll go over everything with you shortly."
	}
	return "我已經把你的重點留給醫師了，等等醫師會再跟你詳細確認喔 🙌"
}

// ResetNotice confirms the interview was restarted.
func ResetNotice(lang Language) string {
	if lang.orDefault() == LanguageEnglish {
		return "Okay, let's start over. What's troubling you most today?"
	}
	return "已重新開始，請問你今天主要哪裡不舒服呢？"
}

// AckNotice is the immediate receipt acknowledgment sent on the messaging
// channel before the turn is processed.
func AckNotice(lang Language) string {
	if lang.orDefault() == LanguageEnglish {
		return "Got it — putting your notes together, I'll follow up with one more question in a moment."
	}
	return "收到，我正在幫你整理重點，馬上再跟你確認幾個小問題～"
}

// ReaskText is the deterministic re-prompt used when an answer was not
// substantive enough to close the current phase.
func ReaskText(phase Phase, lang Language) string {
	if lang.orDefault() == LanguageEnglish {
		return "Sorry — this one really helps the doctor, could you tell me a little more? " + StaticQuestion(phase, LanguageEnglish)
	}
	return "不好意思，這一題對醫師很重要，想再請你多說一點：" + StaticQuestion(phase, LanguageChinese)
}

// phaseTopics describes, per phase, what the dynamically phrased question may
// and may not cover. Fed to the completion service as a constraint.
var phaseTopics = map[Phase]string{
	PhaseChiefComplaint:       "the patient's main complaint today (what is bothering them most)",
	PhaseOnset:                "when the complaint started and how it has evolved",
	PhaseTriggersRelief:       "what makes the complaint worse and what relieves it",
	PhaseQualitySite:          "the character of the discomfort and where on the body it is",
	PhaseSeverity:             "a 0-10 severity rating of the discomfort",
	PhaseAssociatedSymptoms:   "other symptoms occurring alongside the complaint",
	PhaseReviewOfSystems:      "recent changes elsewhere in the body (appetite, sleep, weight, bowel and urinary habits)",
	PhasePastHistory:          "chronic conditions and past surgeries",
	PhaseMedicationsAllergies: "regular medications and drug or food allergies",
	PhaseFamilySocialHistory:  "family history of similar or major illness, smoking and drinking habits",
	PhaseSatisfaction:         "how satisfied the patient was with this pre-visit interview",
	PhaseRecommend:            "whether the patient would recommend this assistant to others",
	PhaseEnd:                  "thanking the patient and closing the interview",
}
