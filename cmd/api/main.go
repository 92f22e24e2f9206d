package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"judgeboard/internal/config"
	"judgeboard/internal/db"
	httpSrv "judgeboard/internal/http"
	"judgeboard/internal/migrations"
	"judgeboard/internal/storage"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// Run embedded migrations (idempotent)
	migrations.Run(cfg.DatabaseURL)

	store := db.NewStore(db.MustOpen(cfg.DatabaseURL))

	var s3c *storage.Client
	if cfg.MinioEndpoint != "" {
		s3c, err = storage.New(ctx, cfg.MinioEndpoint, cfg.MinioBucket, cfg.MinioAccessKey, cfg.MinioSecretKey)
		if err != nil {
			log.Fatal(err)
		}
	}

	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	srv := httpSrv.NewServer(store, s3c, asq, cfg)
	log.Printf("listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
