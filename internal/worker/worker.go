package worker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"judgeboard/internal/config"
	"judgeboard/internal/db"
	"judgeboard/internal/qa"
)

// TypeRunEvaluations is the asynq task type for queued batch runs.
const TypeRunEvaluations = "run_evaluations"

// RunPayload is the task payload for TypeRunEvaluations.
type RunPayload struct {
	WorkspaceID string `json:"workspace_id"`
	OwnerID     string `json:"owner_id"`
}

type Server struct {
	Store *db.Store
	Cfg   *config.Config
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRunEvaluations, s.handleRun)
	return mux
}

// handleRun executes one queued batch evaluation and stores the summary on
// the workspace row. Failures are recorded there too; the task is never
// retried since re-running would just repeat the same model calls.
func (s *Server) handleRun(ctx context.Context, t *asynq.Task) error {
	var p RunPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("starting evaluation run for workspace %s", p.WorkspaceID)

	if s.Cfg.OpenAIAPIKey == "" {
		b, _ := json.Marshal(map[string]string{"error": "OPENAI_API_KEY is not configured"})
		_ = s.Store.SetLastRun(ctx, p.WorkspaceID, b)
		return nil
	}

	runner := &qa.Runner{
		Store: s.Store,
		LLM:   qa.NewCaller(s.Cfg.OpenAIAPIKey, s.Cfg.OpenAIBaseURL),
	}
	summary, err := runner.Run(ctx, p.WorkspaceID, p.OwnerID)
	if err != nil {
		log.Printf("evaluation run for workspace %s failed: %v", p.WorkspaceID, err)
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		_ = s.Store.SetLastRun(ctx, p.WorkspaceID, b)
		return nil
	}

	b, _ := json.Marshal(summary)
	if err := s.Store.SetLastRun(ctx, p.WorkspaceID, b); err != nil {
		return err
	}
	log.Printf("evaluation run for workspace %s: %d processed, %d passed, %d failed, %d inconclusive",
		p.WorkspaceID, summary.Processed, summary.Passed, summary.Failed, summary.Inconclusive)
	return nil
}

// Run starts the asynq worker. Concurrency 1 keeps at most one model call
// in flight across queued runs.
func Run(cfg *config.Config, store *db.Store) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{Concurrency: 1})
	w := &Server{Store: store, Cfg: cfg}
	return srv.Run(w.mux())
}
