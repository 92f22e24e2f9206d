package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a row does not exist or is owned by a
// different caller. Handlers map it to a 404.
var ErrNotFound = errors.New("not found")

// Store wraps all SQL touching the judgeboard schema. Every method that
// reads or writes owner-scoped rows takes the caller's hashed identity and
// filters on it.
type Store struct {
	DB *sqlx.DB
}

func NewStore(dbx *sqlx.DB) *Store { return &Store{DB: dbx} }

// --- workspaces ---

func (s *Store) CreateWorkspace(ctx context.Context, ownerID, name string) (*Workspace, error) {
	w := Workspace{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Temporary: name == "",
	}
	_, err := s.DB.ExecContext(ctx,
		`insert into workspaces(id, owner_id, name, temporary) values($1,$2,$3,$4)`,
		w.ID, w.OwnerID, w.Name, w.Temporary)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) ListWorkspaces(ctx context.Context, ownerID string) ([]Workspace, error) {
	ws := []Workspace{}
	err := s.DB.SelectContext(ctx, &ws,
		`select * from workspaces where owner_id=$1 order by created_at desc`, ownerID)
	return ws, err
}

func (s *Store) GetWorkspace(ctx context.Context, id, ownerID string) (*Workspace, error) {
	var w Workspace
	err := s.DB.GetContext(ctx, &w,
		`select * from workspaces where id=$1 and owner_id=$2`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &w, err
}

// RenameWorkspace names a workspace and clears its temporary flag, making
// it permanent.
func (s *Store) RenameWorkspace(ctx context.Context, id, ownerID, name string) error {
	res, err := s.DB.ExecContext(ctx,
		`update workspaces set name=$1, temporary=false where id=$2 and owner_id=$3`,
		name, id, ownerID)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

func (s *Store) DeleteWorkspace(ctx context.Context, id, ownerID string) error {
	res, err := s.DB.ExecContext(ctx,
		`delete from workspaces where id=$1 and owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

// SetLastRun records the summary of an asynchronous evaluation run on the
// workspace row.
func (s *Store) SetLastRun(ctx context.Context, id string, summary json.RawMessage) error {
	_, err := s.DB.ExecContext(ctx,
		`update workspaces set last_run=$1 where id=$2`, summary, id)
	return err
}

// --- submissions / questions / answers ---

// ImportedQuestion is one question+answer pair from an import payload.
type ImportedQuestion struct {
	Text   string
	Type   *string
	Answer json.RawMessage
}

// CreateSubmission inserts a submission with its questions and answers in
// one transaction. objectRef points at the archived raw payload.
func (s *Store) CreateSubmission(ctx context.Context, workspaceID, name, objectRef string, questions []ImportedQuestion) (*Submission, error) {
	sub := Submission{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		ObjectRef:   objectRef,
	}
	err := WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`insert into submissions(id, workspace_id, name, object_ref) values($1,$2,$3,$4)`,
			sub.ID, sub.WorkspaceID, sub.Name, sub.ObjectRef); err != nil {
			return err
		}
		for _, q := range questions {
			qid := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`insert into questions(id, submission_id, text, qtype) values($1,$2,$3,$4)`,
				qid, sub.ID, q.Text, q.Type); err != nil {
				return err
			}
			if len(q.Answer) == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`insert into answers(question_id, payload) values($1,$2)`,
				qid, []byte(q.Answer)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, workspaceID string) ([]Submission, error) {
	subs := []Submission{}
	err := s.DB.SelectContext(ctx, &subs,
		`select * from submissions where workspace_id=$1 order by created_at`, workspaceID)
	return subs, err
}

func (s *Store) GetSubmission(ctx context.Context, id, ownerID string) (*Submission, error) {
	var sub Submission
	err := s.DB.GetContext(ctx, &sub,
		`select s.* from submissions s
		 join workspaces w on w.id = s.workspace_id
		 where s.id=$1 and w.owner_id=$2`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &sub, err
}

func (s *Store) SubmissionsByWorkspace(ctx context.Context, workspaceID string) ([]Submission, error) {
	return s.ListSubmissions(ctx, workspaceID)
}

func (s *Store) QuestionsBySubmissions(ctx context.Context, submissionIDs []string) ([]Question, error) {
	qs := []Question{}
	if len(submissionIDs) == 0 {
		return qs, nil
	}
	query, args, err := sqlx.In(`select * from questions where submission_id in (?)`, submissionIDs)
	if err != nil {
		return nil, err
	}
	err = s.DB.SelectContext(ctx, &qs, s.DB.Rebind(query), args...)
	return qs, err
}

// AnswersByQuestions returns answer payloads keyed by question id.
// Questions without an answer are simply absent from the map.
func (s *Store) AnswersByQuestions(ctx context.Context, questionIDs []string) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	if len(questionIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`select question_id, payload from answers where question_id in (?)`, questionIDs)
	if err != nil {
		return nil, err
	}
	rows := []Answer{}
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.QuestionID] = a.Payload
	}
	return out, nil
}

// DeleteQuestion removes one question, cascading its answer, assignments
// and evaluations. Ownership is checked through the workspace.
func (s *Store) DeleteQuestion(ctx context.Context, id, ownerID string) error {
	res, err := s.DB.ExecContext(ctx,
		`delete from questions q using submissions s, workspaces w
		 where q.id=$1 and s.id = q.submission_id and w.id = s.workspace_id and w.owner_id=$2`,
		id, ownerID)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

// --- judges ---

func (s *Store) CreateJudge(ctx context.Context, ownerID, name, systemPrompt, model string) (*Judge, error) {
	j := Judge{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         name,
		SystemPrompt: systemPrompt,
		Model:        model,
	}
	_, err := s.DB.ExecContext(ctx,
		`insert into judges(id, owner_id, name, system_prompt, model) values($1,$2,$3,$4,$5)`,
		j.ID, j.OwnerID, j.Name, j.SystemPrompt, j.Model)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) ListJudges(ctx context.Context, ownerID string) ([]Judge, error) {
	js := []Judge{}
	err := s.DB.SelectContext(ctx, &js,
		`select * from judges where owner_id=$1 order by created_at`, ownerID)
	return js, err
}

func (s *Store) GetJudge(ctx context.Context, id, ownerID string) (*Judge, error) {
	var j Judge
	err := s.DB.GetContext(ctx, &j,
		`select * from judges where id=$1 and owner_id=$2`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &j, err
}

func (s *Store) UpdateJudge(ctx context.Context, id, ownerID, name, systemPrompt, model string) error {
	res, err := s.DB.ExecContext(ctx,
		`update judges set name=$1, system_prompt=$2, model=$3 where id=$4 and owner_id=$5`,
		name, systemPrompt, model, id, ownerID)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

func (s *Store) DeleteJudge(ctx context.Context, id, ownerID string) error {
	res, err := s.DB.ExecContext(ctx,
		`delete from judges where id=$1 and owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

// JudgesByIDs resolves judges by id, keeping only those owned by ownerID.
func (s *Store) JudgesByIDs(ctx context.Context, ids []string, ownerID string) ([]Judge, error) {
	js := []Judge{}
	if len(ids) == 0 {
		return js, nil
	}
	query, args, err := sqlx.In(`select * from judges where owner_id = ? and id in (?)`, ownerID, ids)
	if err != nil {
		return nil, err
	}
	err = s.DB.SelectContext(ctx, &js, s.DB.Rebind(query), args...)
	return js, err
}

// --- assignments ---

// ReplaceQuestionJudges swaps the set of judges assigned to a question.
// Only the caller's own judges may be assigned; the question must live in
// one of the caller's workspaces.
func (s *Store) ReplaceQuestionJudges(ctx context.Context, questionID, ownerID string, judgeIDs []string) error {
	return WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var cnt int
		err := tx.GetContext(ctx, &cnt,
			`select count(1) from questions q
			 join submissions s on s.id = q.submission_id
			 join workspaces w on w.id = s.workspace_id
			 where q.id=$1 and w.owner_id=$2`, questionID, ownerID)
		if err != nil {
			return err
		}
		if cnt == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`delete from assignments where question_id=$1`, questionID); err != nil {
			return err
		}
		for _, jid := range judgeIDs {
			res, err := tx.ExecContext(ctx,
				`insert into assignments(judge_id, question_id)
				 select id, $2 from judges where id=$1 and owner_id=$3
				 on conflict do nothing`,
				jid, questionID, ownerID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("judge %s: %w", jid, ErrNotFound)
			}
		}
		return nil
	})
}

func (s *Store) AssignmentsByQuestions(ctx context.Context, questionIDs []string) ([]Assignment, error) {
	as := []Assignment{}
	if len(questionIDs) == 0 {
		return as, nil
	}
	query, args, err := sqlx.In(`select judge_id, question_id from assignments where question_id in (?)`, questionIDs)
	if err != nil {
		return nil, err
	}
	err = s.DB.SelectContext(ctx, &as, s.DB.Rebind(query), args...)
	return as, err
}

// --- evaluations ---

func (s *Store) EvaluationsByQuestions(ctx context.Context, questionIDs []string) ([]Evaluation, error) {
	es := []Evaluation{}
	if len(questionIDs) == 0 {
		return es, nil
	}
	query, args, err := sqlx.In(`select * from evaluations where question_id in (?)`, questionIDs)
	if err != nil {
		return nil, err
	}
	err = s.DB.SelectContext(ctx, &es, s.DB.Rebind(query), args...)
	return es, err
}

func (s *Store) DeleteEvaluations(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`delete from evaluations where id in (?)`, ids)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(query), args...)
	return err
}

// UpsertEvaluation inserts the result for a (question, judge) pair, or
// overwrites the previous one. The unique index on (question_id, judge_id)
// is the conflict target, so re-running a batch never duplicates rows.
func (s *Store) UpsertEvaluation(ctx context.Context, e Evaluation) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx,
		`insert into evaluations(id, question_id, judge_id, submission_id, verdict, reasoning, updated_at)
		 values($1,$2,$3,$4,$5,$6,now())
		 on conflict (question_id, judge_id) do update
		 set verdict = excluded.verdict,
		     reasoning = excluded.reasoning,
		     submission_id = excluded.submission_id,
		     updated_at = now()`,
		e.ID, e.QuestionID, e.JudgeID, e.SubmissionID, e.Verdict, e.Reasoning)
	return err
}

func errIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
