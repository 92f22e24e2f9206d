package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"judgeboard/internal/qa"
	"judgeboard/internal/schemas"
	"judgeboard/internal/worker"
)

type runResponse struct {
	Success bool `json:"success"`
	qa.Summary
}

// runEvaluations is the synchronous batch trigger: it runs every current
// (judge, question) assignment in the workspace inline and returns the
// summary. Per-assignment failures surface only inside results[].
func (s *Server) runEvaluations(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	if s.Cfg.OpenAIAPIKey == "" {
		writeJSON(w, 500, errResp{"OPENAI_API_KEY is not configured"})
		return
	}
	ws, err := s.Store.GetWorkspace(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}

	runner := &qa.Runner{
		Store: s.Store,
		LLM:   qa.NewCaller(s.Cfg.OpenAIAPIKey, s.Cfg.OpenAIBaseURL),
	}
	summary, err := runner.Run(r.Context(), ws.ID, owner)
	if err != nil {
		if errors.Is(err, qa.ErrNoSubmissions) || errors.Is(err, qa.ErrNoQuestions) {
			writeJSON(w, 400, errResp{err.Error()})
			return
		}
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, runResponse{Success: true, Summary: *summary})
}

// enqueueEvaluations queues the same run on the worker; the summary lands
// in the workspace's lastRun field when it finishes.
func (s *Server) enqueueEvaluations(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ws, err := s.Store.GetWorkspace(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	payload, _ := json.Marshal(worker.RunPayload{WorkspaceID: ws.ID, OwnerID: owner})
	task := asynq.NewTask(worker.TypeRunEvaluations, payload)
	if _, err := s.Asynq.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, map[string]string{"enqueued": "ok"})
}

func (s *Server) listEvaluations(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ws, err := s.Store.GetWorkspace(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	questionIDs, err := s.workspaceQuestionIDs(r, ws.ID)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	es, err := s.Store.EvaluationsByQuestions(r.Context(), questionIDs)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	out := make([]schemas.EvaluationOut, 0, len(es))
	for _, e := range es {
		out = append(out, schemas.EvaluationOut{
			QuestionID:   e.QuestionID,
			JudgeID:      e.JudgeID,
			SubmissionID: e.SubmissionID,
			Verdict:      e.Verdict,
			Reasoning:    e.Reasoning,
			UpdatedAt:    e.UpdatedAt,
		})
	}
	writeJSON(w, 200, out)
}
