package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/KnowledgeBase/internal/mcpServer"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the knowledge base tools over MCP stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: ask_knowledge_base, list_documents, knowledge_base_stats.
Logs go to stderr. The same tools are served over HTTP at /mcp by "api serve".`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv, err := mcpServer.NewServer(a.rag)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
