package main

import (
	"fmt"
	"path/filepath"

	"github.com/akolanti/KnowledgeBase/internal/rag/ingest"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest local files into the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	for _, path := range args {
		name := filepath.Base(path)
		text, err := ingest.ExtractText(path, name)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		doc, err := a.rag.IngestText(ctx, name, text)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d chunks\t%d tokens\n", doc.ID, doc.Filename, doc.ChunkCount, doc.TotalTokens)
	}
	return nil
}
