package qa

// Verdict is a judge's conclusion about one answer.
type Verdict string

const (
	VerdictPass         Verdict = "pass"
	VerdictFail         Verdict = "fail"
	VerdictInconclusive Verdict = "inconclusive"
)

// QuestionType is the closed set of question shapes the prompt builder
// knows how to grade. TypeNone covers questions imported without a type.
type QuestionType string

const (
	TypeMultipleChoice        QuestionType = "multiple_choice"
	TypeSingleChoiceReasoning QuestionType = "single_choice_with_reasoning"
	TypeFreeForm              QuestionType = "free_form"
	TypeNone                  QuestionType = ""
)

// ParseQuestionType maps a stored type column to a QuestionType.
// Nil and unrecognized values both fall back to TypeNone, which gets the
// generic grading instructions.
func ParseQuestionType(s *string) QuestionType {
	if s == nil {
		return TypeNone
	}
	switch t := QuestionType(*s); t {
	case TypeMultipleChoice, TypeSingleChoiceReasoning, TypeFreeForm:
		return t
	default:
		return TypeNone
	}
}
