package main

import (
	"context"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"judgeboard/internal/config"
	"judgeboard/internal/db"
	"judgeboard/internal/worker"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	store := db.NewStore(db.MustOpen(cfg.DatabaseURL))
	if err := worker.Run(cfg, store); err != nil {
		log.Fatal(err)
	}
}
