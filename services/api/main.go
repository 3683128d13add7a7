package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrovision/grainloss/services/api/config"
	"github.com/agrovision/grainloss/services/api/db"
	"github.com/agrovision/grainloss/services/api/detect"
	httpserver "github.com/agrovision/grainloss/services/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store db.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connection error: %v", err)
		}
		store = pgStore
	} else {
		log.Printf("no DATABASE_URL configured, using in-memory store")
		store = db.NewMemory()
	}
	defer store.Close()

	adapter := detect.New(ctx, detect.Options{
		BaseURL:       cfg.InferenceURL,
		ProbeTimeout:  cfg.ProbeTimeout,
		DetectTimeout: cfg.DetectTimeout,
		Confidence:    cfg.ConfidenceThreshold,
		IoU:           cfg.IoUThreshold,
		GeneratorSeed: time.Now().UnixNano(),
	})

	srv := httpserver.New(cfg, store, adapter)
	log.Printf("REST API listening on %s (detection mode: %s)", cfg.ListenAddr(), adapter.Mode())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
