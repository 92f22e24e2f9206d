package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"judgeboard/internal/db"
)

var (
	ErrNoSubmissions = errors.New("workspace has no submissions")
	ErrNoQuestions   = errors.New("workspace has no questions")
)

// Store is the slice of persistence the batch runner needs. *db.Store
// implements it; tests use an in-memory fake.
type Store interface {
	SubmissionsByWorkspace(ctx context.Context, workspaceID string) ([]db.Submission, error)
	QuestionsBySubmissions(ctx context.Context, submissionIDs []string) ([]db.Question, error)
	AnswersByQuestions(ctx context.Context, questionIDs []string) (map[string]json.RawMessage, error)
	AssignmentsByQuestions(ctx context.Context, questionIDs []string) ([]db.Assignment, error)
	JudgesByIDs(ctx context.Context, ids []string, ownerID string) ([]db.Judge, error)
	EvaluationsByQuestions(ctx context.Context, questionIDs []string) ([]db.Evaluation, error)
	DeleteEvaluations(ctx context.Context, ids []string) error
	UpsertEvaluation(ctx context.Context, e db.Evaluation) error
}

// LLM grades a single prompt. *Caller implements it.
type LLM interface {
	Judge(ctx context.Context, rubric, prompt, model string) (JudgeVerdict, error)
}

// Result is the outcome of one (judge, question) assignment.
type Result struct {
	QuestionID string  `json:"questionId"`
	JudgeID    string  `json:"judgeId"`
	Verdict    Verdict `json:"verdict"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// Summary aggregates one batch run.
type Summary struct {
	Processed    int      `json:"processed"`
	Passed       int      `json:"passed"`
	Failed       int      `json:"failed"`
	Inconclusive int      `json:"inconclusive"`
	Results      []Result `json:"results"`
}

// Runner drives batch evaluation for a workspace: resolve the data, prune
// stale evaluations, then feed every assignment through the model one at a
// time. Sequential on purpose: it bounds the request rate against the
// provider and keeps log ordering deterministic.
type Runner struct {
	Store Store
	LLM   LLM
}

// Run evaluates every current (judge, question) assignment in the
// workspace. Per-assignment failures are absorbed into inconclusive
// evaluations; only structural problems (no submissions, no questions,
// storage errors during resolution) fail the run.
func (r *Runner) Run(ctx context.Context, workspaceID, ownerID string) (*Summary, error) {
	subs, err := r.Store.SubmissionsByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("resolve submissions: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrNoSubmissions
	}
	subIDs := make([]string, 0, len(subs))
	for _, s := range subs {
		subIDs = append(subIDs, s.ID)
	}

	questions, err := r.Store.QuestionsBySubmissions(ctx, subIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	questionByID := make(map[string]db.Question, len(questions))
	questionIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		questionByID[q.ID] = q
		questionIDs = append(questionIDs, q.ID)
	}

	answers, err := r.Store.AnswersByQuestions(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve answers: %w", err)
	}

	assignments, err := r.Store.AssignmentsByQuestions(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve assignments: %w", err)
	}

	summary := &Summary{Results: []Result{}}

	// Reconcile before processing so the evaluations table never keeps
	// results for pairings that are no longer configured.
	if err := r.reconcile(ctx, questionIDs, assignments); err != nil {
		return nil, fmt.Errorf("reconcile evaluations: %w", err)
	}

	if len(assignments) == 0 {
		return summary, nil
	}

	judgeIDs := distinctJudgeIDs(assignments)
	judges, err := r.Store.JudgesByIDs(ctx, judgeIDs, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve judges: %w", err)
	}
	if len(judges) == 0 {
		return summary, nil
	}
	judgeByID := make(map[string]db.Judge, len(judges))
	for _, j := range judges {
		judgeByID[j.ID] = j
	}

	for _, a := range assignments {
		judge, ok := judgeByID[a.JudgeID]
		if !ok {
			log.Printf("skip assignment (%s, %s): judge not found", a.JudgeID, a.QuestionID)
			continue
		}
		question, ok := questionByID[a.QuestionID]
		if !ok {
			log.Printf("skip assignment (%s, %s): question not found", a.JudgeID, a.QuestionID)
			continue
		}

		res := r.evaluate(ctx, judge, question, answers[question.ID])
		summary.Processed++
		switch res.Verdict {
		case VerdictPass:
			summary.Passed++
		case VerdictFail:
			summary.Failed++
		default:
			summary.Inconclusive++
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

// evaluate runs one assignment end to end: build the prompt, call the
// model, persist the verdict. It never returns an error; any failure in
// the chain is downgraded to an inconclusive evaluation carrying the error
// message as its reasoning.
func (r *Runner) evaluate(ctx context.Context, judge db.Judge, question db.Question, answer json.RawMessage) Result {
	res := Result{QuestionID: question.ID, JudgeID: judge.ID}

	jv, err := func() (JudgeVerdict, error) {
		prompt := BuildPrompt(ParseQuestionType(question.Type), question.Text, answer)
		jv, err := r.LLM.Judge(ctx, judge.SystemPrompt, prompt, judge.Model)
		if err != nil {
			return JudgeVerdict{}, err
		}
		if err := r.persist(ctx, question, judge.ID, jv); err != nil {
			return JudgeVerdict{}, err
		}
		return jv, nil
	}()
	if err != nil {
		fallback := JudgeVerdict{
			Verdict:   VerdictInconclusive,
			Reasoning: "Error: " + err.Error(),
		}
		if perr := r.persist(ctx, question, judge.ID, fallback); perr != nil {
			log.Printf("persist fallback evaluation (%s, %s): %v", judge.ID, question.ID, perr)
		}
		res.Verdict = VerdictInconclusive
		res.Error = err.Error()
		return res
	}

	res.Verdict = jv.Verdict
	res.Success = true
	return res
}

func (r *Runner) persist(ctx context.Context, question db.Question, judgeID string, jv JudgeVerdict) error {
	return r.Store.UpsertEvaluation(ctx, db.Evaluation{
		QuestionID:   question.ID,
		JudgeID:      judgeID,
		SubmissionID: question.SubmissionID,
		Verdict:      string(jv.Verdict),
		Reasoning:    jv.Reasoning,
	})
}

// reconcile deletes evaluation rows whose (question, judge) pair is not in
// the current assignment set.
func (r *Runner) reconcile(ctx context.Context, questionIDs []string, assignments []db.Assignment) error {
	existing, err := r.Store.EvaluationsByQuestions(ctx, questionIDs)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	assigned := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		assigned[a.QuestionID+"/"+a.JudgeID] = true
	}
	var stale []string
	for _, e := range existing {
		if !assigned[e.QuestionID+"/"+e.JudgeID] {
			stale = append(stale, e.ID)
		}
	}
	if len(stale) > 0 {
		log.Printf("pruning %d stale evaluations", len(stale))
	}
	return r.Store.DeleteEvaluations(ctx, stale)
}

func distinctJudgeIDs(assignments []db.Assignment) []string {
	seen := make(map[string]bool, len(assignments))
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if !seen[a.JudgeID] {
			seen[a.JudgeID] = true
			ids = append(ids, a.JudgeID)
		}
	}
	return ids
}
