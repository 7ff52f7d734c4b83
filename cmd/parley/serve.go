package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvale/parley/internal/config"
	"github.com/nvale/parley/internal/logging"
	"github.com/nvale/parley/internal/runtime"
	"github.com/nvale/parley/internal/server"
	"github.com/nvale/parley/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	Long:  `Starts the websocket chat server. Any room can start a compiled dialogue from the configured graph library.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		if err := runServe(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to the YAML configuration file")
}

func runServe(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logging.New(cfg.Server.LogLevel.Slog())

	var graphs store.GraphStore
	var closer interface{ Close() error }
	if cfg.Graphs.RedisAddr != "" {
		rs := store.NewRedisStore(cfg.Graphs.RedisAddr)
		graphs, closer = rs, rs
	} else {
		graphs = store.NewFileStore(cfg.Graphs.Dir)
	}
	if closer != nil {
		defer closer.Close()
	}

	runtimeOpts := []runtime.Option{runtime.WithPacing(cfg.Pacing.Build())}
	if cfg.Dialogue.Narrator != "" {
		runtimeOpts = append(runtimeOpts, runtime.WithNarrator(cfg.Dialogue.Narrator))
	}
	if cfg.Dialogue.GracePeriod != 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithGracePeriod(time.Duration(cfg.Dialogue.GracePeriod)))
	}

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithRuntimeOptions(runtimeOpts...),
	}
	if cfg.Dialogue.Host != "" {
		serverOpts = append(serverOpts, server.WithHost(cfg.Dialogue.Host))
	}

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: server.New(graphs, serverOpts...).Handler(),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("starting parley server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("starting shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
		logger.Info("parley server stopped")
	}
	return nil
}
