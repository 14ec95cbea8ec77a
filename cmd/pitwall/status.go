package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitwall-ai/pitwall/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and collection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func showStatus(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	printStatus("store", "%s", cfg.Store.Backend)
	printStatus("chat model", "%s", cfg.OpenAI.ChatModel)
	printStatus("embed model", "%s", cfg.OpenAI.EmbedModel)
	printStatus("top-K", "%d", cfg.Retrieval.TopK)
	printStatus("augment mode", "%s", cfg.Retrieval.Augment)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	count, err := store.Count(ctx)
	if err != nil {
		printWarning("collection unreachable: %v", err)
		return nil
	}
	printStatus("records", "%d", count)
	printSuccess("collection reachable")
	return nil
}
