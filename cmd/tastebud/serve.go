package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/tastebud-ai/tastebud/config"
	"github.com/tastebud-ai/tastebud/internal/chat"
	"github.com/tastebud-ai/tastebud/internal/docstore"
	"github.com/tastebud-ai/tastebud/internal/generator"
	"github.com/tastebud-ai/tastebud/internal/kb"
	"github.com/tastebud-ai/tastebud/internal/retriever"
	"github.com/tastebud-ai/tastebud/internal/server"
	"github.com/tastebud-ai/tastebud/internal/session"
	"github.com/tastebud-ai/tastebud/provider"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Build the knowledge base and run the HTTP API server",
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
				return fmt.Errorf("building knowledge base: %w", err)
			}

			sessions, err := session.NewStore(cfg.Session)
			if err != nil {
				return err
			}
			defer sessions.Close()

			ret := retriever.New(prov, index, cfg.Retrieval.TopK, cfg.Embedding.Timeout)
			gen := generator.New(prov, cfg.Session.HistoryWindow, cfg.LLM.Timeout)
			orch := chat.New(sessions, ret, gen)

			srv := server.New(orch, store)
			return srv.Run(cfg.Server.Address)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")

	return serve
}

func newDocStore(ctx context.Context, cfg config.DocStoreConfig) (docstore.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return docstore.NewFileStore(cfg.Path), nil
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("docstore.postgres_url not configured")
		}
		store, err := docstore.NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		log.Printf("using postgres document store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown docstore backend: %s", cfg.Backend)
	}
}
