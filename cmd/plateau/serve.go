package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/plateau/internal/config"
	httpapi "github.com/sawpanic/plateau/internal/interfaces/http"
	"github.com/sawpanic/plateau/internal/plateau"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the sweep dataset and serve the explorer API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	holder := plateau.NewHolder(sess)

	var server *httpapi.Server
	reload := func(ctx context.Context) (*plateau.Session, error) {
		next, err := newSession(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if server != nil {
			next.Index.SetBuildHook(server.Metrics().IndexBuildHook)
		}
		return next, nil
	}

	server, err = httpapi.NewServer(cfg.Server, holder, reload)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	log.Info().Str("addr", server.Address()).Str("dataset", sess.DatasetID).Msg("plateau explorer ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
