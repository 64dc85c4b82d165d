package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "chunks to retrieve (0 = default)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	answer, err := a.rag.Ask(ctx, strings.Join(args, " "), askTopK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Answer)
	if answer.Degraded {
		fmt.Fprintln(out, "\n(sources were not ranked by relevance)")
	}
	for i, s := range answer.Sources {
		score := "n/a"
		if s.Score != nil {
			score = fmt.Sprintf("%.4f", *s.Score)
		}
		fmt.Fprintf(out, "[Source %d] %s #%d (score %s)\n", i+1, s.Document, s.ChunkIndex, score)
	}
	return nil
}
