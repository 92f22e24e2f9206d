package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJudgeVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    JudgeVerdict
	}{
		{
			name:    "pass",
			content: `{"verdict":"pass","reasoning":"correct choice"}`,
			want:    JudgeVerdict{Verdict: VerdictPass, Reasoning: "correct choice"},
		},
		{
			name:    "fail",
			content: `{"verdict":"fail","reasoning":"wrong"}`,
			want:    JudgeVerdict{Verdict: VerdictFail, Reasoning: "wrong"},
		},
		{
			name:    "inconclusive",
			content: `{"verdict":"inconclusive","reasoning":"hedged"}`,
			want:    JudgeVerdict{Verdict: VerdictInconclusive, Reasoning: "hedged"},
		},
		{
			name:    "unknown verdict coerced",
			content: `{"verdict":"maybe","reasoning":"hmm"}`,
			want:    JudgeVerdict{Verdict: VerdictInconclusive, Reasoning: "hmm"},
		},
		{
			name:    "missing verdict coerced",
			content: `{"reasoning":"no verdict field"}`,
			want:    JudgeVerdict{Verdict: VerdictInconclusive, Reasoning: "no verdict field"},
		},
		{
			name:    "missing reasoning defaults empty",
			content: `{"verdict":"pass"}`,
			want:    JudgeVerdict{Verdict: VerdictPass, Reasoning: ""},
		},
		{
			name:    "not json",
			content: "The answer looks right to me.",
			want:    JudgeVerdict{Verdict: VerdictInconclusive, Reasoning: "Failed to parse LLM response as JSON"},
		},
		{
			name:    "empty content",
			content: "",
			want:    JudgeVerdict{Verdict: VerdictInconclusive, Reasoning: "Failed to parse LLM response as JSON"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseJudgeVerdict(tt.content))
		})
	}
}
