package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitwall-ai/pitwall/internal/ai"
	"github.com/pitwall-ai/pitwall/internal/config"
	"github.com/pitwall-ai/pitwall/internal/ingest"
	"github.com/pitwall-ai/pitwall/internal/scrape"
	"github.com/pitwall-ai/pitwall/internal/vector"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf ...]",
	Short: "Populate the vector collection",
	Long: `With no arguments, scrapes the built-in Formula One source pages,
splits them into overlapping chunks, embeds each chunk, and writes the
records into the vector collection. With file arguments, ingests local
PDF documents into the same collection instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args)
	},
}

func runIngest(parent context.Context, files []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
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
	defer closeStore()

	scraper := scrape.New(30 * time.Second)
	runner := ingest.NewRunner(scraper, ingest.NewSplitter(), provider.Embedder(), store, vector.DefaultDimension)

	if len(files) > 0 {
		return ingestFiles(ctx, runner, store, files)
	}

	stats, err := runner.Run(ctx, ingest.F1Sources)
	if err != nil {
		return err
	}
	printSuccess("ingestion complete: %d sources, %d chunks, %d records inserted (%d sources skipped)",
		stats.Sources, stats.Chunks, stats.Inserted, stats.Skipped)
	return nil
}

func ingestFiles(ctx context.Context, runner *ingest.Runner, store vector.Store, files []string) error {
	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}

	for _, path := range files {
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			printWarning("skipping %s: only PDF files are supported", path)
			continue
		}

		text, err := ingest.ExtractPDFText(path)
		if err != nil {
			printWarning("skipping %s: %v", path, err)
			continue
		}

		chunks, inserted, err := runner.IngestText(ctx, path, text)
		if err != nil {
			printWarning("skipping %s: %v", path, err)
			continue
		}
		printSuccess("%s: %d chunks, %d records inserted", path, chunks, inserted)
	}
	return nil
}
