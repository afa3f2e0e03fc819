package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/recipebox/internal/server"
	"github.com/hyperjump/recipebox/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func newServerCmd(opts *globalOptions) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server and the import directory watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx, opts, true)
			if err != nil {
				return err
			}
			defer c.Close()
			return runServer(ctx, c, !noWatch)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch import directories")
	return cmd
}

// runServer serves the API until ctx is done. The watcher, when enabled, runs
// alongside it; either failing stops both.
func runServer(ctx context.Context, c *Components, watch bool) error {
	logger := c.Logger
	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithAppConfig(c.Config),
	}
	if c.Auth != nil {
		srvOpts = append(srvOpts, server.WithAccounts(c.Auth))
	}

	var w *watcher.Watcher
	if watch {
		w = watcher.NewWatcher(c.Indexer, &c.Config.Watch, watcher.WithLogger(logger))
		srvOpts = append(srvOpts, server.WithWatch(w, c.Config, c.ConfigPath))
	}
	srv := server.NewServer(c.Engine, c.Indexer, &c.Config.Server, srvOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(stopCtx)
	})
	if w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
