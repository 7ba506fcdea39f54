package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/learnloop/tutorbook/config"
	"github.com/learnloop/tutorbook/internal/embedding"
	"github.com/learnloop/tutorbook/internal/ingest"
	"github.com/learnloop/tutorbook/internal/vectorstore"
)

func indexCMD() *cobra.Command {
	var cfgPath string
	var docsDir string
	var pattern string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk, embed and upsert textbook chapters into Qdrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()

			embedder, err := embedding.NewClient(embedding.Config{
				APIKey:    cfg.Embedding.APIKey,
				BaseURL:   cfg.Embedding.BaseURL,
				Model:     cfg.Embedding.Model,
				BatchSize: cfg.Embedding.BatchSize,
				Timeout:   cfg.Embedding.IngestTimeout,
			})
			if err != nil {
				return err
			}

			ix := &ingest.Indexer{
				Embedder:     embedder,
				Index:        vectorstore.NewClient(cfg.Vector.URL, cfg.Vector.APIKey, cfg.Vector.Timeout),
				Collection:   cfg.Vector.Collection,
				Book:         cfg.Vector.Book,
				BaseURL:      cfg.Ingest.BaseURL,
				ChunkSize:    cfg.Ingest.ChunkSize,
				ChunkOverlap: cfg.Ingest.ChunkOverlap,
				Logger:       log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
			}
			if err := ix.CheckCollection(ctx); err != nil {
				return err
			}

			if docsDir == "" {
				docsDir = cfg.Ingest.DocsDir
			}
			if pattern == "" {
				pattern = cfg.Ingest.Pattern
			}
			files, err := ingest.DiscoverFiles(docsDir, pattern)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files match %s in %s", pattern, docsDir)
			}

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionSetWidth(32),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			totalChunks := 0
			failed := 0
			for _, f := range files {
				n, err := ix.IndexFile(ctx, f)
				if err != nil {
					// One bad chapter should not abort the whole run.
					failed++
					log.Printf("index %s: %v, skipping", f, err)
				} else {
					totalChunks += n
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			if failed == len(files) {
				return fmt.Errorf("all %d files failed to index", failed)
			}
			fmt.Printf("indexed %d chunks from %d files into %q\n", totalChunks, len(files)-failed, cfg.Vector.Collection)
			if failed > 0 {
				fmt.Printf("%d files failed, see log above\n", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docsDir, "docs", "", "directory with chapter files (default from config)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob pattern for chapter files (default from config)")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}
