package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitwall-ai/pitwall/internal/ai"
	"github.com/pitwall-ai/pitwall/internal/api"
	"github.com/pitwall-ai/pitwall/internal/config"
	"github.com/pitwall-ai/pitwall/internal/pipeline"
	"github.com/pitwall-ai/pitwall/internal/retrieval"
	"github.com/pitwall-ai/pitwall/internal/vector"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func initLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// openStore builds the configured vector store backend. The returned close
// function is a no-op for the remote backend.
func openStore(cfg config.Config) (vector.Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		s, err := vector.OpenSQLite(cfg.Store.SQLitePath, vector.DefaultDimension)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s.Close, nil
	default:
		s := vector.NewAstraStore(vector.AstraConfig{
			Endpoint:   cfg.Astra.Endpoint,
			Token:      cfg.Astra.Token,
			Namespace:  cfg.Astra.Namespace,
			Collection: cfg.Astra.Collection,
		})
		return s, func() error { return nil }, nil
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := ai.NewProvider(ai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		ChatModel:  cfg.OpenAI.ChatModel,
		EmbedModel: cfg.OpenAI.EmbedModel,
	})
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Warn("closing store", "error", err)
		}
	}()

	retriever := retrieval.New(provider.Embedder(), store, cfg.Retrieval.TopK)
	answerer := pipeline.New(retriever, provider.Generator(), pipeline.AugmentMode(cfg.Retrieval.Augment))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(answerer),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("pitwall listening", "addr", addr, "store", cfg.Store.Backend, "augment", cfg.Retrieval.Augment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
