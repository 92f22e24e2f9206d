package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"judgeboard/internal/config"
	"judgeboard/internal/db"
	"judgeboard/internal/storage"
)

type Server struct {
	Store *db.Store
	S3    *storage.Client
	Asynq *asynq.Client
	Cfg   *config.Config
}

func NewServer(store *db.Store, s3c *storage.Client, asq *asynq.Client, cfg *config.Config) *http.Server {
	s := &Server{Store: store, S3: s3c, Asynq: asq, Cfg: cfg}
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(cfg.APIToken))

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", s.createWorkspace)
			r.Get("/", s.listWorkspaces)
			r.Get("/{id}", s.getWorkspace)
			r.Patch("/{id}", s.renameWorkspace)
			r.Delete("/{id}", s.deleteWorkspace)
			r.Post("/{id}/submissions", s.importSubmission)
			r.Get("/{id}/submissions", s.listSubmissions)
			r.Get("/{id}/questions", s.listQuestions)
			r.Get("/{id}/assignments", s.listAssignments)
			r.Post("/{id}/evaluations", s.runEvaluations)
			r.Post("/{id}/evaluations/async", s.enqueueEvaluations)
			r.Get("/{id}/evaluations", s.listEvaluations)
		})

		r.Route("/judges", func(r chi.Router) {
			r.Post("/", s.createJudge)
			r.Get("/", s.listJudges)
			r.Get("/{id}", s.getJudge)
			r.Patch("/{id}", s.updateJudge)
			r.Delete("/{id}", s.deleteJudge)
		})

		r.Delete("/questions/{id}", s.deleteQuestion)
		r.Put("/questions/{id}/judges", s.setQuestionJudges)
		r.Get("/submissions/{id}/raw", s.getSubmissionRaw)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DB.Ping(); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &http.Server{Addr: cfg.ListenAddr, Handler: r}
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreErr maps store failures onto API errors: missing or foreign
// rows become 404s, everything else is a 500.
func writeStoreErr(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, 404, errResp{"not found"})
		return
	}
	writeJSON(w, 500, errResp{err.Error()})
}
