package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/KnowledgeBase/internal/handlers"
	"github.com/akolanti/KnowledgeBase/internal/mcpServer"
	"github.com/akolanti/KnowledgeBase/internal/middleware"
	"github.com/akolanti/KnowledgeBase/internal/server"
	"github.com/akolanti/KnowledgeBase/internal/worker"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, the job workers and the /mcp endpoint",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides config)")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	jobs, err := a.newJobService(ctx)
	if err != nil {
		a.close()
		return err
	}

	pool := worker.NewPool(jobs, a.rag, cfg.Workers)
	pool.Start()

	mcpSrv, err := mcpServer.NewServer(a.rag)
	if err != nil {
		pool.Stop()
		a.close()
		return err
	}

	router := server.NewRouter(handlers.New(a.rag, jobs, cfg.Server), middleware.New(cfg.Server), mcpSrv.Handler())
	srv := server.New(cfg.Server, router)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		Pool:             pool,
		CloseServices:    a.close,
	})

	if err := srv.Start(); err != nil {
		pool.Stop()
		a.close()
		return err
	}

	<-stopExecution
	a.logger.Info("Server stopped")
	return nil
}
