// @title           Knowledge Base RAG API
// @version         1.0
// @description     Document ingestion and question answering over a retrieval-augmented knowledge base.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
package main

import (
	"fmt"
	"os"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Knowledge base RAG service",
	Long: `Ingests documents into a vector store and answers questions from them.

Without a subcommand the HTTP API is served.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// loadConfig reads the configuration and installs the process logger.
// Loggers go to stderr when stdout carries a protocol.
func loadConfig(stderrLogs bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if stderrLogs {
		logger_i.InitWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
	} else {
		logger_i.Init(cfg.Log.Level, cfg.Log.JSON)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
