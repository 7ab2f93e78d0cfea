package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rolls/internal/config"
	"rolls/internal/connectors"
	"rolls/internal/listener"
	"rolls/internal/logging"
	"rolls/internal/pipeline"
	"rolls/internal/schema"
	"rolls/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("ROLLS_INBOX_DIR", cfg.InboxDir))
	must(cfg.Require("ROLLS_OUTPUT_DIR", cfg.OutputDir))

	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	must(err)
	defer func() { _ = log.Sync() }()

	registry := schema.NewRegistry()
	_, err = registry.LoadDir(cfg.SchemaDir)
	must(err)

	var db *storage.DB
	// Fetched mail is remembered in the database, so polling a mailbox needs
	// it even when runs are not recorded.
	if cfg.RecordRuns || cfg.MailProvider != "" {
		db, err = storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
	}

	runDB := db
	if !cfg.RecordRuns {
		runDB = nil
	}
	proc := pipeline.NewProcessingService(runDB, cfg, registry, log)
	svc := listener.NewService(db, cfg, proc, log)
	if cfg.MailProvider != "" {
		conn, err := connectors.New(cfg, "")
		must(err)
		svc.EnableMailFetch(connectors.NewFetchService(db, cfg.InboxDir, conn, log), time.Duration(cfg.MailIntervalSec)*time.Second)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
