package settings

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/store"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

// StorageKey is the record the settings map is persisted under.
const StorageKey = "webgraph_settings"

// Store keeps the current Settings and writes every change through to the backend.
type Store struct {
	mu       sync.Mutex
	backend  store.Storer
	current  Settings
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates a settings store holding the defaults until Load is called.
func New(backend store.Storer, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:  backend,
		current:  Defaults(),
		validate: newValidator(),
		logger:   logger,
	}
}

// Load merges persisted values over the defaults. Missing keys fall back to
// defaults, unknown keys are ignored and out-of-range values are reset.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	persisted, found, err := store.GetJSON[map[string]float64](ctx, s.backend, StorageKey)
	if err != nil {
		return s.current, apperrors.NewStorageFailure("load settings", err)
	}
	merged := Defaults()
	if found && persisted != nil {
		merged = merge(merged, *persisted)
	}

	if bad := invalidKeys(s.validate, merged); len(bad) > 0 {
		defaults := Defaults().Map()
		m := merged.Map()
		for _, k := range bad {
			m[k] = defaults[k]
		}
		merged = fromMap(m)
		s.logger.Warn("persisted settings out of range, using defaults", zap.Strings("keys", bad))

		// cross-field rules can still fail against a persisted neighbour
		if still := invalidKeys(s.validate, merged); len(still) > 0 {
			merged = Defaults()
			s.logger.Warn("persisted settings inconsistent, using all defaults", zap.Strings("keys", still))
		}
	}

	s.current = merged
	return s.current, nil
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set changes one parameter and persists the whole record immediately.
func (s *Store) Set(ctx context.Context, key string, value float64) (Settings, error) {
	return s.SetMany(ctx, map[string]float64{key: value})
}

// SetMany applies several parameters atomically: either all are valid and
// persisted, or nothing changes.
func (s *Store) SetMany(ctx context.Context, values map[string]float64) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.current.Map()
	for k, v := range values {
		if _, ok := m[k]; !ok {
			return s.current, apperrors.NewInvalidArgument("unknown setting %q", k)
		}
		m[k] = v
	}
	next := fromMap(m)
	if bad := invalidKeys(s.validate, next); len(bad) > 0 {
		return s.current, apperrors.NewInvalidArgument("setting out of range: %v", bad)
	}

	if err := s.persist(ctx, next); err != nil {
		return s.current, err
	}
	s.current = next
	return s.current, nil
}

// Reset restores the defaults and persists them.
func (s *Store) Reset(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := Defaults()
	if err := s.persist(ctx, defaults); err != nil {
		return s.current, err
	}
	s.current = defaults
	return s.current, nil
}

func (s *Store) persist(ctx context.Context, v Settings) error {
	if err := store.SetJSON(ctx, s.backend, StorageKey, v.Map()); err != nil {
		return apperrors.NewStorageFailure("save settings", err)
	}
	return nil
}
