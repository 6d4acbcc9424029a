package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/config"
	"github.com/raphataylor/WebGraph/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	driver     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "webgraph",
		Short:         "Browse bookmarks as a force-directed graph of sites and tags",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "Override the storage driver (sqlite, fs, memory)")

	cmd.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newRemoveCmd(opts),
		newVisitCmd(opts),
		newEditCmd(opts),
		newTagsCmd(opts),
		newSettingsCmd(opts),
		newSnapshotCmd(opts),
		newLayoutCmd(opts),
		newClearCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp opens the configured stores, runs fn and closes them again.
func (o *rootOptions) withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close stores", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
