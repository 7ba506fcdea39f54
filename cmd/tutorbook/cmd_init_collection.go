package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnloop/tutorbook/config"
	"github.com/learnloop/tutorbook/internal/embedding"
	"github.com/learnloop/tutorbook/internal/vectorstore"
)

func initCollectionCMD() *cobra.Command {
	var cfgPath string
	var recreate bool

	cmd := &cobra.Command{
		Use:   "init-collection",
		Short: "Create the Qdrant collection for textbook chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			client := vectorstore.NewClient(cfg.Vector.URL, cfg.Vector.APIKey, cfg.Vector.Timeout)

			name := cfg.Vector.Collection
			dim := cfg.Vector.Dimension
			if dim <= 0 {
				dim = embedding.Dimension
			}

			exists, err := client.CollectionExists(ctx, name)
			if err != nil {
				return fmt.Errorf("check collection: %w", err)
			}
			if exists {
				if !recreate {
					fmt.Printf("collection %q already exists\n", name)
					return nil
				}
				if err := client.DeleteCollection(ctx, name); err != nil {
					return fmt.Errorf("delete collection: %w", err)
				}
				fmt.Printf("deleted collection %q\n", name)
			}
			if err := client.CreateCollection(ctx, name, dim); err != nil {
				return fmt.Errorf("create collection: %w", err)
			}
			fmt.Printf("created collection %q (dim=%d, cosine)\n", name, dim)
			return nil
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the collection, discarding indexed points")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return cmd
}
