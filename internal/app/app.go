// Package app wires configuration, storage, stores and the view controller
// into one unit shared by the CLI and the HTTP host.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/config"
	"github.com/raphataylor/WebGraph/internal/metrics"
	"github.com/raphataylor/WebGraph/internal/settings"
	"github.com/raphataylor/WebGraph/internal/snapshots"
	"github.com/raphataylor/WebGraph/internal/store"
	"github.com/raphataylor/WebGraph/internal/view"
)

// App holds every long-lived component.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	Bookmarks  *bookmarks.Store
	Settings   *settings.Store
	Snapshots  *snapshots.Store
	Controller *view.Controller

	kv     store.Storer
	blobKV store.Storer
}

// New opens the configured backends, loads settings and projects the Space.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	kv, blobKV, err := OpenBackends(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return NewWithBackends(ctx, cfg, logger, kv, blobKV)
}

// NewWithBackends is New over already opened backends, for hosts such as the
// browser that bring their own storage. The App takes ownership of both.
func NewWithBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger, kv, blobKV store.Storer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewCollector("webgraph"),
		kv:      kv,
		blobKV:  blobKV,
	}
	a.Snapshots = snapshots.New(blobKV, logger.Named("snapshots"))
	a.Bookmarks = bookmarks.New(kv, bookmarks.Options{
		SeedExamples: cfg.Bookmarks.SeedExamples,
		IDs:          bookmarks.NewIDGenerator(cfg.Bookmarks.IDStrategy),
		Snapshots:    a.Snapshots,
		Logger:       logger.Named("bookmarks"),
		Observe:      a.Metrics.ObserveStoreOp,
	})
	a.Settings = settings.New(kv, logger.Named("settings"))
	if _, err := a.Settings.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Controller = view.NewController(a.Bookmarks, a.Settings, a.Snapshots, view.Options{
		Width:         cfg.Viewport.Width,
		Height:        cfg.Viewport.Height,
		Seed:          cfg.Layout.Seed,
		HullEvery:     cfg.Layout.HullEvery,
		HullPrefilter: cfg.Layout.HullPrefilter,
		HullPadding:   cfg.Layout.HullPadding,
		Logger:        logger.Named("view"),
		Observer:      a.Metrics,
	})
	if err := a.Controller.Refresh(ctx); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("webgraph ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Uint64("version", a.Bookmarks.Version()))
	return a, nil
}

// NewLoop returns a loop owning the controller, ticking at the configured interval.
func (a *App) NewLoop() *view.Loop {
	return view.NewLoop(a.Controller, a.Config.Layout.TickInterval, a.Logger.Named("loop"))
}

// Close releases the storage backends.
func (a *App) Close() error {
	var errs []error
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
	}
	if a.blobKV != nil && a.blobKV != a.kv {
		errs = append(errs, a.blobKV.Close())
	}
	return errors.Join(errs...)
}

// OpenBackends returns the key-value store for the Space and settings records
// and the one for snapshot blobs.
func OpenBackends(cfg config.StorageConfig) (kv, blobKV store.Storer, err error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemStore(), store.NewMemStore(), nil
	case "sqlite":
		kv, err = store.NewSQLiteStoreWithDSN(cfg.DSN)
	case "fs":
		kv, err = openFSStore(cfg.DataDir)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	blobKV, err = openFSStore(cfg.SnapshotDir)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return kv, blobKV, nil
}

func openFSStore(dir string) (store.Storer, error) {
	fsys, err := store.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	return store.NewFSStore(fsys, ".")
}
