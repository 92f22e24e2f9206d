package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"judgeboard/internal/db"
	"judgeboard/internal/schemas"
)

func (s *Server) createJudge(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	req, ok := decodeJudge(w, r)
	if !ok {
		return
	}
	model := req.Model
	if model == "" {
		model = s.Cfg.DefaultModel
	}
	j, err := s.Store.CreateJudge(r.Context(), owner, req.Name, req.SystemPrompt, model)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	writeJSON(w, 200, judgeOut(j))
}

func (s *Server) listJudges(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	js, err := s.Store.ListJudges(r.Context(), owner)
	if err != nil {
		writeJSON(w, 500, errResp{err.Error()})
		return
	}
	out := make([]schemas.JudgeOut, 0, len(js))
	for i := range js {
		out = append(out, judgeOut(&js[i]))
	}
	writeJSON(w, 200, out)
}

func (s *Server) getJudge(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	j, err := s.Store.GetJudge(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, judgeOut(j))
}

func (s *Server) updateJudge(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	req, ok := decodeJudge(w, r)
	if !ok {
		return
	}
	model := req.Model
	if model == "" {
		model = s.Cfg.DefaultModel
	}
	if err := s.Store.UpdateJudge(r.Context(), chi.URLParam(r, "id"), owner, req.Name, req.SystemPrompt, model); err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "updated"})
}

func (s *Server) deleteJudge(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeleteJudge(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func decodeJudge(w http.ResponseWriter, r *http.Request) (schemas.JudgeRequest, bool) {
	var req schemas.JudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, errResp{err.Error()})
		return req, false
	}
	if req.Name == "" || req.SystemPrompt == "" {
		writeJSON(w, 400, errResp{"name and systemPrompt are required"})
		return req, false
	}
	return req, true
}

func judgeOut(j *db.Judge) schemas.JudgeOut {
	return schemas.JudgeOut{
		JudgeID:      j.ID,
		Name:         j.Name,
		SystemPrompt: j.SystemPrompt,
		Model:        j.Model,
		CreatedAt:    j.CreatedAt,
	}
}
