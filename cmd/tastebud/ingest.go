package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tastebud-ai/tastebud/config"
	"github.com/tastebud-ai/tastebud/internal/kb"
	"github.com/tastebud-ai/tastebud/provider"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var ingest = &cobra.Command{
		Use:   "ingest",
		Short: "Build the knowledge base from the document store",
		Long: `Reads every restaurant and menu item from the configured document
store, chunks and embeds them, and writes the vector index. With a
persistent index path the result survives restarts; re-running replaces
each restaurant's chunks without duplicating them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx := context.Background()

			store, err := newDocStore(ctx, cfg.DocStore)
			if err != nil {
				return err
			}

			prov, err := provider.NewProvider(cfg.LLM, cfg.Embedding)
			if err != nil {
				return err
			}

			index, err := kb.NewIndex(cfg.Index.Path, cfg.Embedding.Dimension)
			if err != nil {
				return err
			}

			builder := kb.NewBuilder(prov, index, cfg.Embedding.Timeout)
			if err := builder.Build(ctx, store); err != nil {
				return err
			}

			fmt.Printf("ingest complete: %d chunks indexed\n", index.Count())
			return nil
		},
	}
	ingest.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return ingest
}
