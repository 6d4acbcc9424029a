package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads the configuration file when it changes and notifies the
// registered callbacks with the new, validated configuration.
type Watcher struct {
	path     string
	logger   *zap.Logger
	debounce time.Duration
	fs       *fsnotify.Watcher
	stopCh   chan struct{}
	once     sync.Once

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
}

// Watch starts watching path. The directory is watched rather than the file
// so editors that replace the file on save are still seen.
func Watch(path string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	return watch(path, initial, logger, defaultDebounce)
}

func watch(path string, initial *Config, logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		logger:   logger,
		debounce: debounce,
		fs:       fsw,
		stopCh:   make(chan struct{}),
		current:  initial,
	}
	go w.watchLoop()
	logger.Info("watching configuration", zap.String("path", abs))
	return w, nil
}

// OnChange registers fn to run after each successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the latest valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.stopCh) })
	return nil
}

func (w *Watcher) watchLoop() {
	defer w.fs.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append(([]func(*Config))(nil), w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.Int("callbacks", len(callbacks)))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
