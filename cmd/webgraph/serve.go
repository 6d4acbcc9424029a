package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/config"
	"github.com/raphataylor/WebGraph/internal/server"
	"github.com/raphataylor/WebGraph/internal/view"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout loop and serve the graph over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.withApp(ctx, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.Server.Addr
				}

				loop := a.NewLoop()
				loop.Start(ctx)
				defer loop.Wait()
				defer loop.Stop()

				if opts.configPath != "" {
					w, err := config.Watch(opts.configPath, a.Config, a.Logger.Named("config"))
					if err != nil {
						return err
					}
					defer w.Close()
					w.OnChange(func(cfg *config.Config) {
						resizeOnReload(ctx, loop, a.Logger, cfg)
					})
				}

				srv := server.New(server.Deps{
					Loop:      loop,
					Bookmarks: a.Bookmarks,
					Snapshots: a.Snapshots,
					Metrics:   a.Metrics,
					Logger:    a.Logger.Named("http"),
				})
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr from config)")
	return cmd
}

// resizeOnReload applies a reloaded viewport size; storage and server
// settings need a restart.
func resizeOnReload(ctx context.Context, loop *view.Loop, logger *zap.Logger, cfg *config.Config) {
	err := loop.Do(ctx, func(c *view.Controller) error {
		vp := c.Viewport()
		if vp.Width != cfg.Viewport.Width || vp.Height != cfg.Viewport.Height {
			c.Resize(cfg.Viewport.Width, cfg.Viewport.Height)
		}
		return nil
	})
	if err != nil {
		logger.Warn("apply reloaded config", zap.Error(err))
	}
}
