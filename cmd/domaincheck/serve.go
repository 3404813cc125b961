package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go.domaincheck.dev/checker/internal/api"
	"go.domaincheck.dev/checker/internal/engine"
)

type serveOpts struct {
	host string
	port int
}

func newServeCmd(global *globalOpts) *cobra.Command {
	var opt serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket domain-check API",
		Long: `Starts an HTTP server exposing POST /v1/check (batch) and
GET /v1/check/stream (WebSocket, streamed as results complete).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, &opt)
		},
	}

	cmd.Flags().StringVar(&opt.host, "host", "0.0.0.0", "address to bind")
	cmd.Flags().IntVar(&opt.port, "port", 8080, "port to bind")

	return cmd
}

func runServe(cmd *cobra.Command, global *globalOpts, opt *serveOpts) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}

	log, err := global.newLogger()
	if err != nil {
		return err
	}

	e, err := engine.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	srv := api.New(e, log, opt.host, opt.port)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
