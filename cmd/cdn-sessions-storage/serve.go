package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/config"
	sessionshttp "github.com/youwol/cdn-sessions-storage/http"
	"github.com/youwol/cdn-sessions-storage/startup"
)

var serveCmd = &cobra.Command{
	Use:   "serve <environment>",
	Short: "Start the HTTP server",
	Long: `Resolve the configuration of an environment, run the startup hooks and
serve the sessions API.

Environments: local, tricot, remote-clients, hybrid, prod.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default: per environment, env: CDN_SESSIONS_SERVER_PORT)")
	serveCmd.Flags().Int("peer-port", 2000, "port of the py-youwol peer, hybrid only (env: CDN_SESSIONS_PEER_PORT)")

	rootCmd.AddCommand(serveCmd)
}

// resolve configures logging for the environment then resolves it through
// the command's resolver. Logging comes first so the request chain logs
// through the environment's sink.
func resolve(ctx context.Context, key string, settings *config.Settings) (*config.ServiceConfiguration, error) {
	resolver, err := resolverFromContext(ctx)
	if err != nil {
		return nil, err
	}
	env, err := config.ParseEnvironment(key)
	if err != nil {
		return nil, err
	}
	setupLogging(os.Stderr, config.LogSinkOf(env), settings.Log.Level)

	return resolver.Resolve(ctx, key)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	settings, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	cfg, err := resolve(ctx, args[0], settings)
	if err != nil {
		slog.Error("resolve configuration", "env", args[0], "err", err)
		return err
	}
	defer closeBackends(cfg)

	if err := startup.DefaultChain().RunOnce(ctx, cfg); err != nil {
		slog.Error("startup failed", "err", err)
		return err
	}

	service, err := sessions.NewSessionService(cfg.Storage)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handler := sessionshttp.NewHandler(&sessionshttp.HandlerConfig{
		RootPath: cfg.Server.RootPath,
		Chain:    cfg.Middleware,
		CORS:     settings.CORS,
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "env", cfg.Environment, "root_path", cfg.Server.RootPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func closeBackends(cfg *config.ServiceConfiguration) {
	for name, h := range map[string]any{"storage": cfg.Storage, "cache": cfg.Cache} {
		if c, ok := h.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("close backend", "backend", name, "err", err)
			}
		}
	}
}
