package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional, env vars win over file values via viper.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "tutorbook",
		Short: "Textbook tutoring backend: RAG index, retrieval and chat API",
	}
	root.AddCommand(serveCMD(), migrateCMD(), initCollectionCMD(), indexCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
