package qa

import "encoding/json"

// JudgeVerdict is the validated form of a model reply.
type JudgeVerdict struct {
	Verdict   Verdict `json:"verdict"`
	Reasoning string  `json:"reasoning"`
}

// ParseJudgeVerdict turns raw model output into a well-formed verdict.
// It never fails: unparseable content and unknown verdict values both come
// back as inconclusive, which keeps everything downstream verdict-safe.
func ParseJudgeVerdict(content string) JudgeVerdict {
	var raw struct {
		Verdict   string `json:"verdict"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return JudgeVerdict{
			Verdict:   VerdictInconclusive,
			Reasoning: "Failed to parse LLM response as JSON",
		}
	}
	v := Verdict(raw.Verdict)
	switch v {
	case VerdictPass, VerdictFail, VerdictInconclusive:
	default:
		v = VerdictInconclusive
	}
	return JudgeVerdict{Verdict: v, Reasoning: raw.Reasoning}
}
