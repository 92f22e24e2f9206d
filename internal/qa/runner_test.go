package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judgeboard/internal/db"
)

// fakeStore is an in-memory Store with the same upsert and ownership
// semantics as the SQL store.
type fakeStore struct {
	subs        []db.Submission
	questions   []db.Question
	answers     map[string]json.RawMessage
	assignments []db.Assignment
	judges      []db.Judge

	evals     map[string]db.Evaluation // keyed question_id/judge_id
	nextID    int
	upsertErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		answers: map[string]json.RawMessage{},
		evals:   map[string]db.Evaluation{},
	}
}

func (f *fakeStore) SubmissionsByWorkspace(_ context.Context, workspaceID string) ([]db.Submission, error) {
	out := []db.Submission{}
	for _, s := range f.subs {
		if s.WorkspaceID == workspaceID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) QuestionsBySubmissions(_ context.Context, submissionIDs []string) ([]db.Question, error) {
	in := map[string]bool{}
	for _, id := range submissionIDs {
		in[id] = true
	}
	out := []db.Question{}
	for _, q := range f.questions {
		if in[q.SubmissionID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) AnswersByQuestions(_ context.Context, questionIDs []string) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	for _, id := range questionIDs {
		if a, ok := f.answers[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeStore) AssignmentsByQuestions(_ context.Context, questionIDs []string) ([]db.Assignment, error) {
	in := map[string]bool{}
	for _, id := range questionIDs {
		in[id] = true
	}
	out := []db.Assignment{}
	for _, a := range f.assignments {
		if in[a.QuestionID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) JudgesByIDs(_ context.Context, ids []string, ownerID string) ([]db.Judge, error) {
	in := map[string]bool{}
	for _, id := range ids {
		in[id] = true
	}
	out := []db.Judge{}
	for _, j := range f.judges {
		if in[j.ID] && j.OwnerID == ownerID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeStore) EvaluationsByQuestions(_ context.Context, questionIDs []string) ([]db.Evaluation, error) {
	in := map[string]bool{}
	for _, id := range questionIDs {
		in[id] = true
	}
	out := []db.Evaluation{}
	for _, e := range f.evals {
		if in[e.QuestionID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteEvaluations(_ context.Context, ids []string) error {
	byID := map[string]bool{}
	for _, id := range ids {
		byID[id] = true
	}
	for k, e := range f.evals {
		if byID[e.ID] {
			delete(f.evals, k)
			f.deleted = append(f.deleted, e.ID)
		}
	}
	return nil
}

func (f *fakeStore) UpsertEvaluation(_ context.Context, e db.Evaluation) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	key := e.QuestionID + "/" + e.JudgeID
	if prev, ok := f.evals[key]; ok {
		e.ID = prev.ID
	} else {
		f.nextID++
		e.ID = fmt.Sprintf("eval-%d", f.nextID)
	}
	f.evals[key] = e
	return nil
}

func (f *fakeStore) seedEvaluation(questionID, judgeID, verdict string) {
	f.nextID++
	f.evals[questionID+"/"+judgeID] = db.Evaluation{
		ID:         fmt.Sprintf("eval-%d", f.nextID),
		QuestionID: questionID,
		JudgeID:    judgeID,
		Verdict:    verdict,
	}
}

type llmCall struct {
	rubric, prompt, model string
}

type fakeLLM struct {
	fn    func(rubric, prompt, model string) (JudgeVerdict, error)
	calls []llmCall
}

func (f *fakeLLM) Judge(_ context.Context, rubric, prompt, model string) (JudgeVerdict, error) {
	f.calls = append(f.calls, llmCall{rubric, prompt, model})
	if f.fn == nil {
		return JudgeVerdict{Verdict: VerdictPass, Reasoning: "ok"}, nil
	}
	return f.fn(rubric, prompt, model)
}

func seedWorkspace(f *fakeStore) {
	mc := "multiple_choice"
	f.subs = []db.Submission{{ID: "s1", WorkspaceID: "w1"}}
	f.questions = []db.Question{
		{ID: "q1", SubmissionID: "s1", Text: "Capital of France? A) Lyon B) Paris", Type: &mc},
		{ID: "q2", SubmissionID: "s1", Text: "Describe the climate of Paris."},
	}
	f.answers["q1"] = json.RawMessage(`{"choice":"B"}`)
	f.judges = []db.Judge{{ID: "j1", OwnerID: "owner", SystemPrompt: "correct answer is B", Model: "gpt-4o-mini"}}
	f.assignments = []db.Assignment{
		{JudgeID: "j1", QuestionID: "q1"},
		{JudgeID: "j1", QuestionID: "q2"},
	}
}

func TestRunNoSubmissions(t *testing.T) {
	r := &Runner{Store: newFakeStore(), LLM: &fakeLLM{}}
	_, err := r.Run(context.Background(), "w1", "owner")
	require.ErrorIs(t, err, ErrNoSubmissions)
}

func TestRunNoQuestions(t *testing.T) {
	f := newFakeStore()
	f.subs = []db.Submission{{ID: "s1", WorkspaceID: "w1"}}
	r := &Runner{Store: f, LLM: &fakeLLM{}}
	_, err := r.Run(context.Background(), "w1", "owner")
	require.ErrorIs(t, err, ErrNoQuestions)
}

func TestRunNoAssignmentsIsEmptySuccess(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	f.assignments = nil

	llm := &fakeLLM{}
	r := &Runner{Store: f, LLM: llm}
	summary, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	assert.Equal(t, &Summary{Results: []Result{}}, summary)
	assert.Empty(t, llm.calls)

	b, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"processed":0,"passed":0,"failed":0,"inconclusive":0,"results":[]}`, string(b))
}

func TestRunNoOwnedJudgesIsEmptySuccess(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	f.judges[0].OwnerID = "somebody-else"

	llm := &fakeLLM{}
	r := &Runner{Store: f, LLM: llm}
	summary, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, summary.Results)
	assert.Empty(t, llm.calls)
}

func TestRunHappyPath(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)

	llm := &fakeLLM{fn: func(rubric, prompt, model string) (JudgeVerdict, error) {
		assert.Contains(t, prompt, "Question:")
		return JudgeVerdict{Verdict: VerdictPass, Reasoning: "matches"}, nil
	}}
	r := &Runner{Store: f, LLM: llm}

	summary, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Passed)
	assert.Len(t, summary.Results, 2)
	for _, res := range summary.Results {
		assert.True(t, res.Success)
		assert.Equal(t, VerdictPass, res.Verdict)
	}

	require.Len(t, llm.calls, 2)
	assert.Equal(t, "correct answer is B", llm.calls[0].rubric)
	assert.Equal(t, "gpt-4o-mini", llm.calls[0].model)
	assert.Contains(t, llm.calls[0].prompt, `{"choice":"B"}`)
	assert.Contains(t, llm.calls[1].prompt, "null", "missing answer serializes as null")

	require.Len(t, f.evals, 2)
	e := f.evals["q1/j1"]
	assert.Equal(t, "pass", e.Verdict)
	assert.Equal(t, "matches", e.Reasoning)
	assert.Equal(t, "s1", e.SubmissionID)
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	r := &Runner{Store: f, LLM: &fakeLLM{}}

	_, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	firstIDs := map[string]string{}
	for k, e := range f.evals {
		firstIDs[k] = e.ID
	}

	_, err = r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	require.Len(t, f.evals, 2, "second run overwrites, not duplicates")
	for k, e := range f.evals {
		assert.Equal(t, firstIDs[k], e.ID, "row %s kept its identity", k)
	}
}

func TestRunReconcilesStaleEvaluations(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	f.assignments = []db.Assignment{{JudgeID: "j1", QuestionID: "q1"}}
	f.seedEvaluation("q1", "j1", "fail")
	f.seedEvaluation("q1", "j2", "pass") // assignment since removed

	r := &Runner{Store: f, LLM: &fakeLLM{}}
	_, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)

	_, stale := f.evals["q1/j2"]
	assert.False(t, stale, "evaluation for removed assignment must be pruned")
	kept, ok := f.evals["q1/j1"]
	require.True(t, ok)
	assert.Equal(t, "pass", kept.Verdict, "kept pair was re-evaluated")
	assert.Len(t, f.deleted, 1)
}

func TestRunAbsorbsModelErrors(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	f.assignments = f.assignments[:1]

	llm := &fakeLLM{fn: func(rubric, prompt, model string) (JudgeVerdict, error) {
		return JudgeVerdict{}, errors.New("connection refused")
	}}
	r := &Runner{Store: f, LLM: llm}

	summary, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err, "per-assignment failures never fail the batch")
	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	assert.False(t, res.Success)
	assert.Equal(t, VerdictInconclusive, res.Verdict)
	assert.Equal(t, "connection refused", res.Error)
	assert.Equal(t, 1, summary.Inconclusive)

	e, ok := f.evals["q1/j1"]
	require.True(t, ok, "fallback evaluation is persisted")
	assert.Equal(t, "inconclusive", e.Verdict)
	assert.Equal(t, "Error: connection refused", e.Reasoning)
}

func TestRunSurvivesFallbackPersistFailure(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	f.assignments = f.assignments[:1]
	f.upsertErr = errors.New("db down")

	llm := &fakeLLM{fn: func(rubric, prompt, model string) (JudgeVerdict, error) {
		return JudgeVerdict{}, errors.New("provider exploded")
	}}
	r := &Runner{Store: f, LLM: llm}

	summary, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "provider exploded", summary.Results[0].Error)
	assert.Empty(t, f.evals)
}

func TestRunSkipsUnresolvableJudges(t *testing.T) {
	f := newFakeStore()
	seedWorkspace(f)
	// Second judge exists in assignments but belongs to another owner.
	f.judges = append(f.judges, db.Judge{ID: "j2", OwnerID: "somebody-else", Model: "gpt-4o-mini"})
	f.assignments = append(f.assignments, db.Assignment{JudgeID: "j2", QuestionID: "q1"})

	r := &Runner{Store: f, LLM: &fakeLLM{}}
	summary, err := r.Run(context.Background(), "w1", "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed, "foreign judge's assignment is skipped, not failed")
}
