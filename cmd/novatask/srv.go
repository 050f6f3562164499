package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"novatask/internal/blobstore"
	"novatask/internal/config"
	"novatask/internal/server"
	"novatask/internal/store"
)

const (
	apiTokenEnvKey  = "NOVATASK_API_TOKEN"
	shutdownTimeout = 10 * time.Second
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the novatask API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			blobRoot := blobstore.DefaultRoot(cfg.DBPath)
			bs, err := blobstore.NewLocalCAS(blobRoot, cfg.Images.MaxUploadBytes)
			if err != nil {
				return err
			}

			srv := server.New(addr, st, bs, server.OptionsFromConfig(cfg, os.Getenv(apiTokenEnvKey)), logger)
			if err := srv.Seed(cmd.Context(), cfg.Users, cfg.Tasks); err != nil {
				return err
			}
			return serveUntilSignal(srv, logger)
		},
	}
}

// serveUntilSignal runs srv until it fails or SIGINT/SIGTERM arrives.
func serveUntilSignal(srv *server.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		},
	)

	select {
	case err := <-errCh:
		return err
	case code := <-wait:
		logger.Info("server exited", "code", code)
		if code != 0 {
			return fmt.Errorf("shutdown finished with code %d", code)
		}
		return nil
	}
}
