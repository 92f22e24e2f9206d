package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"judgeboard/internal/db"
	"judgeboard/internal/schemas"
)

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	var req schemas.CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return
	}
	ws, err := s.Store.CreateWorkspace(r.Context(), owner, req.Name)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, workspaceOut(ws))
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	wss, err := s.Store.ListWorkspaces(r.Context(), owner)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	out := make([]schemas.WorkspaceOut, 0, len(wss))
	for i := range wss {
		out = append(out, workspaceOut(&wss[i]))
	}
	writeJSON(w, 200, out)
}

func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ws, err := s.Store.GetWorkspace(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, workspaceOut(ws))
}

// renameWorkspace names a workspace, which also makes it permanent.
func (s *Server) renameWorkspace(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	var req schemas.RenameWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, 400, errResp{"name is required"})
		return
	}
	if err := s.Store.RenameWorkspace(r.Context(), chi.URLParam(r, "id"), owner, req.Name); err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "saved"})
}

func (s *Server) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeleteWorkspace(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

// importSubmission ingests one batch of question/answer pairs. A path id
// of "new" creates a temporary workspace on the fly, which stays around
// until the caller names it or deletes it. The raw payload is archived to
// object storage when a bucket is configured.
func (s *Server) importSubmission(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	var req schemas.ImportSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, 400, errResp{"questions are required"})
		return
	}
	for _, q := range req.Questions {
		if q.Text == "" {
			writeJSON(w, 400, errResp{"every question needs text"})
			return
		}
	}

	var ws *db.Workspace
	var err error
	if id := chi.URLParam(r, "id"); id == "new" {
		ws, err = s.Store.CreateWorkspace(r.Context(), owner, "")
	} else {
		ws, err = s.Store.GetWorkspace(r.Context(), id, owner)
	}
	if err != nil {
		writeStoreErr(w, err)
		return
	}

	objectRef := ""
	if s.S3 != nil {
		objectRef, err = s.S3.PutJSON(r.Context(), req)
		if err != nil {
			// Archive failures should not block the import itself.
			log.Printf("archive submission payload: %v", err)
			objectRef = ""
		}
	}

	questions := make([]db.ImportedQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, db.ImportedQuestion{Text: q.Text, Type: q.Type, Answer: q.Answer})
	}
	sub, err := s.Store.CreateSubmission(r.Context(), ws.ID, req.Name, objectRef, questions)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, schemas.ImportSubmissionResponse{
		WorkspaceID:  ws.ID,
		SubmissionID: sub.ID,
		Questions:    len(questions),
	})
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ws, err := s.Store.GetWorkspace(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	subs, err := s.Store.ListSubmissions(r.Context(), ws.ID)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	out := make([]schemas.SubmissionOut, 0, len(subs))
	for _, sub := range subs {
		out = append(out, schemas.SubmissionOut{
			SubmissionID: sub.ID,
			WorkspaceID:  sub.WorkspaceID,
			Name:         sub.Name,
			CreatedAt:    sub.CreatedAt,
		})
	}
	writeJSON(w, 200, out)
}

// listQuestions returns every question in the workspace with its answer
// payload and currently assigned judges.
func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ws, err := s.Store.GetWorkspace(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	subs, err := s.Store.ListSubmissions(r.Context(), ws.ID)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	subIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		subIDs = append(subIDs, sub.ID)
	}
	qs, err := s.Store.QuestionsBySubmissions(r.Context(), subIDs)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	answers, err := s.Store.AnswersByQuestions(r.Context(), ids)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	assignments, err := s.Store.AssignmentsByQuestions(r.Context(), ids)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	judgesByQuestion := map[string][]string{}
	for _, a := range assignments {
		judgesByQuestion[a.QuestionID] = append(judgesByQuestion[a.QuestionID], a.JudgeID)
	}
	out := make([]schemas.QuestionOut, 0, len(qs))
	for _, q := range qs {
		jids := judgesByQuestion[q.ID]
		if jids == nil {
			jids = []string{}
		}
		out = append(out, schemas.QuestionOut{
			QuestionID:   q.ID,
			SubmissionID: q.SubmissionID,
			Text:         q.Text,
			Type:         q.Type,
			Answer:       answers[q.ID],
			JudgeIDs:     jids,
		})
	}
	writeJSON(w, 200, out)
}

// getSubmissionRaw returns the archived import payload from object storage.
func (s *Server) getSubmissionRaw(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	sub, err := s.Store.GetSubmission(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	if s.S3 == nil || sub.ObjectRef == "" {
		writeJSON(w, 404, errResp{"no archived payload for this submission"})
		return
	}
	doc, err := s.S3.GetJSON(r.Context(), sub.ObjectRef)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, doc)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeleteQuestion(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (s *Server) setQuestionJudges(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	var req schemas.SetQuestionJudgesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return
	}
	if err := s.Store.ReplaceQuestionJudges(r.Context(), chi.URLParam(r, "id"), owner, req.JudgeIDs); err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "assigned"})
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
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
	as, err := s.Store.AssignmentsByQuestions(r.Context(), questionIDs)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	out := make([]schemas.AssignmentOut, 0, len(as))
	for _, a := range as {
		out = append(out, schemas.AssignmentOut{JudgeID: a.JudgeID, QuestionID: a.QuestionID})
	}
	writeJSON(w, 200, out)
}

func (s *Server) workspaceQuestionIDs(r *http.Request, workspaceID string) ([]string, error) {
	subs, err := s.Store.ListSubmissions(r.Context(), workspaceID)
	if err != nil {
		return nil, err
	}
	subIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		subIDs = append(subIDs, sub.ID)
	}
	qs, err := s.Store.QuestionsBySubmissions(r.Context(), subIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func workspaceOut(ws *db.Workspace) schemas.WorkspaceOut {
	return schemas.WorkspaceOut{
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		Temporary:   ws.Temporary,
		LastRun:     ws.LastRun,
		CreatedAt:   ws.CreatedAt,
	}
}
