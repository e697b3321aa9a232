package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/schoolchat/config"
	"github.com/mohammad-safakhou/schoolchat/models"
	"github.com/mohammad-safakhou/schoolchat/provider"
	"github.com/mohammad-safakhou/schoolchat/retrieval/bleveindex"
)

// indexCMD loads extracted site passages into the knowledge index. The
// input is a JSON array of passages as produced by the extraction step.
func indexCMD() *cobra.Command {
	var cfgPath string
	var input string
	var withEmbeddings bool

	var index = &cobra.Command{
		Use:   "index",
		Short: "Load extracted passages into the knowledge index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var emb bleveindex.Embedder
			if withEmbeddings {
				llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM)
				if err != nil {
					return err
				}
				emb = llm
			}

			idx, err := bleveindex.Open(cfg.Retrieval.IndexPath, emb)
			if err != nil {
				return fmt.Errorf("opening knowledge index: %w", err)
			}
			defer idx.Close()

			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			var passages []models.Passage
			if err := json.Unmarshal(data, &passages); err != nil {
				return fmt.Errorf("parsing %s: %w", input, err)
			}

			for i, p := range passages {
				if err := idx.Add(ctx, p); err != nil {
					return fmt.Errorf("indexing passage %d: %w", i, err)
				}
			}
			if err := idx.Flush(); err != nil {
				return err
			}

			fmt.Printf("indexed %d passages (%d total)\n", len(passages), idx.Count())
			return nil
		},
	}
	index.Flags().StringVarP(&input, "input", "i", "passages.json", "extracted passages JSON file")
	index.Flags().BoolVar(&withEmbeddings, "embed", false, "compute embeddings while indexing")
	index.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	_ = index.MarkFlagRequired("input")

	return index
}
