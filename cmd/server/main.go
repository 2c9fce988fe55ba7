package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/fb2fetch/internal/api"
	"github.com/dgallion1/fb2fetch/internal/config"
	"github.com/dgallion1/fb2fetch/internal/fb2"
	"github.com/dgallion1/fb2fetch/internal/fetch"
	"github.com/dgallion1/fb2fetch/internal/library"
	"github.com/dgallion1/fb2fetch/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize fetcher and output library.
	client := fetch.NewClient(fetch.Config{
		Timeout:      cfg.FetchTimeout,
		Retries:      cfg.FetchRetries,
		RatePerSec:   cfg.FetchRatePerSec,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxPageBytes,
	}, log)
	lib := library.NewStore(cfg.OutputDir)

	// Initialize pipeline.
	conv := pipeline.NewConverter(client, lib, log, pipeline.Options{
		Extract: fb2.Options{
			RawHeadings:    cfg.RawHeadings,
			ParagraphsOnly: cfg.ParagraphsOnly,
		},
		ContentClass:      cfg.ContentClass,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	})
	orch := pipeline.NewOrchestrator(conv, log, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, lib, client.Stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting requests before the queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()

		client.Close()
	}()

	log.Info("starting fb2fetch server", "port", cfg.Port, "output_dir", cfg.OutputDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
