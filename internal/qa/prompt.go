package qa

import (
	"fmt"
)

const verdictFormat = `Respond with a JSON object with exactly two fields:
"verdict" - one of "pass", "fail" or "inconclusive"
"reasoning" - free text explaining your verdict`

// BuildPrompt produces the user-role instruction for one (question, answer)
// pair. The grading rules depend on the question type; the judge's rubric
// arrives separately as the system prompt.
func BuildPrompt(qt QuestionType, questionText string, answer []byte) string {
	payload := "null"
	if len(answer) > 0 {
		payload = string(answer)
	}

	var rules string
	switch qt {
	case TypeMultipleChoice:
		rules = `This is a multiple choice question. The answer payload holds the selected option(s) under a "choice", "label" or "choices" field. Extract the selection and compare it against the correct answer defined by your grading criteria. Judge strictly: "pass" if the selection is correct, "fail" otherwise.`
	case TypeSingleChoiceReasoning:
		rules = `This is a single choice question that requires reasoning. The answer payload holds the selected option under a "choice" or "label" field and a free-text justification under a "reasoning" or "text" field. The choice and the justification must agree. If the choice is correct but the justification contradicts it or expresses uncertainty, return "inconclusive" rather than "pass": a correct guess without sound reasoning does not pass.`
	case TypeFreeForm:
		rules = `This is a free form question. The answer payload holds the response text under a "text" or "content" field. Extract it and judge its quality against your grading criteria.`
	case TypeNone:
		rules = `Judge whether the answer satisfies your grading criteria.`
	default:
		rules = `Judge whether the answer satisfies your grading criteria.`
	}

	return fmt.Sprintf("Question:\n%s\n\nAnswer (JSON):\n%s\n\n%s\n\n%s",
		questionText, payload, rules, verdictFormat)
}
