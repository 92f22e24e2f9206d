package db

import (
	"encoding/json"
	"time"
)

type Workspace struct {
	ID        string          `db:"id"`
	OwnerID   string          `db:"owner_id"`
	Name      string          `db:"name"`
	Temporary bool            `db:"temporary"`
	LastRun   json.RawMessage `db:"last_run"`
	CreatedAt time.Time       `db:"created_at"`
}

type Submission struct {
	ID          string    `db:"id"`
	WorkspaceID string    `db:"workspace_id"`
	Name        string    `db:"name"`
	ObjectRef   string    `db:"object_ref"`
	CreatedAt   time.Time `db:"created_at"`
}

type Question struct {
	ID           string  `db:"id"`
	SubmissionID string  `db:"submission_id"`
	Text         string  `db:"text"`
	Type         *string `db:"qtype"`
}

type Answer struct {
	QuestionID string          `db:"question_id"`
	Payload    json.RawMessage `db:"payload"`
}

type Judge struct {
	ID           string    `db:"id"`
	OwnerID      string    `db:"owner_id"`
	Name         string    `db:"name"`
	SystemPrompt string    `db:"system_prompt"`
	Model        string    `db:"model"`
	CreatedAt    time.Time `db:"created_at"`
}

type Assignment struct {
	JudgeID    string `db:"judge_id"`
	QuestionID string `db:"question_id"`
}

type Evaluation struct {
	ID           string    `db:"id"`
	QuestionID   string    `db:"question_id"`
	JudgeID      string    `db:"judge_id"`
	SubmissionID string    `db:"submission_id"`
	Verdict      string    `db:"verdict"`
	Reasoning    string    `db:"reasoning"`
	UpdatedAt    time.Time `db:"updated_at"`
}
