package schemas

import (
	"encoding/json"
	"time"
)

type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

type RenameWorkspaceRequest struct {
	Name string `json:"name"`
}

// ImportQuestion is one question in an import payload. Answer is kept as
// raw JSON: its shape depends on the question type and is only interpreted
// at evaluation time.
type ImportQuestion struct {
	Text   string          `json:"text"`
	Type   *string         `json:"type,omitempty"`
	Answer json.RawMessage `json:"answer,omitempty"`
}

type ImportSubmissionRequest struct {
	Name      string           `json:"name"`
	Questions []ImportQuestion `json:"questions"`
}

type ImportSubmissionResponse struct {
	WorkspaceID  string `json:"workspaceId"`
	SubmissionID string `json:"submissionId"`
	Questions    int    `json:"questions"`
}

type JudgeRequest struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt"`
	Model        string `json:"model"`
}

type SetQuestionJudgesRequest struct {
	JudgeIDs []string `json:"judgeIds"`
}

type WorkspaceOut struct {
	WorkspaceID string          `json:"workspaceId"`
	Name        string          `json:"name"`
	Temporary   bool            `json:"temporary"`
	LastRun     json.RawMessage `json:"lastRun,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type SubmissionOut struct {
	SubmissionID string    `json:"submissionId"`
	WorkspaceID  string    `json:"workspaceId"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

type QuestionOut struct {
	QuestionID   string          `json:"questionId"`
	SubmissionID string          `json:"submissionId"`
	Text         string          `json:"text"`
	Type         *string         `json:"type,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	JudgeIDs     []string        `json:"judgeIds"`
}

type JudgeOut struct {
	JudgeID      string    `json:"judgeId"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"systemPrompt"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AssignmentOut struct {
	JudgeID    string `json:"judgeId"`
	QuestionID string `json:"questionId"`
}

type EvaluationOut struct {
	QuestionID   string    `json:"questionId"`
	JudgeID      string    `json:"judgeId"`
	SubmissionID string    `json:"submissionId"`
	Verdict      string    `json:"verdict"`
	Reasoning    string    `json:"reasoning"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
