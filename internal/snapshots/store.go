// Package snapshots keeps page-preview blobs out of the bookmark record.
package snapshots

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/store"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

const keyPrefix = "snapshot/"

// Record is the persisted form of one snapshot.
type Record struct {
	ID       string `json:"id"`
	Snapshot []byte `json:"snapshot"`
}

// Store is a key-value blob store keyed by Site id. It writes to its own
// backend so large payloads never touch the Space record.
type Store struct {
	backend store.Storer
	logger  *zap.Logger
}

// New creates a snapshot store on top of backend.
func New(backend store.Storer, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Put stores blob for the site id, replacing any previous snapshot.
func (s *Store) Put(ctx context.Context, id string, blob []byte) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewInvalidArgument("snapshot id is empty")
	}
	rec := Record{ID: id, Snapshot: blob}
	if err := store.SetJSON(ctx, s.backend, keyPrefix+id, rec); err != nil {
		return apperrors.NewStorageFailure("put snapshot "+id, err)
	}
	return nil
}

// Get returns the snapshot for id. A missing snapshot yields found=false and
// a nil error.
func (s *Store) Get(ctx context.Context, id string) ([]byte, bool, error) {
	if strings.TrimSpace(id) == "" {
		return nil, false, apperrors.NewInvalidArgument("snapshot id is empty")
	}
	rec, found, err := store.GetJSON[Record](ctx, s.backend, keyPrefix+id)
	if err != nil {
		return nil, false, apperrors.NewStorageFailure("get snapshot "+id, err)
	}
	if !found {
		return nil, false, nil
	}
	return rec.Snapshot, true, nil
}

// Has reports whether a snapshot exists for id.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	_, found, err := s.backend.Get(ctx, keyPrefix+id)
	if err != nil {
		return false, apperrors.NewStorageFailure("stat snapshot "+id, err)
	}
	return found, nil
}

// Delete removes the snapshot for id; deleting a missing snapshot is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, keyPrefix+id); err != nil {
		return apperrors.NewStorageFailure("delete snapshot "+id, err)
	}
	return nil
}

// Clear removes every snapshot.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, keyPrefix)
	if err != nil {
		return apperrors.NewStorageFailure("list snapshots", err)
	}
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			return apperrors.NewStorageFailure("clear snapshots", err)
		}
	}
	s.logger.Debug("snapshots cleared", zap.Int("count", len(keys)))
	return nil
}

// IDs lists the site ids that currently have a snapshot.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, apperrors.NewStorageFailure("list snapshots", err)
	}
	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = strings.TrimPrefix(key, keyPrefix)
	}
	return ids, nil
}

// DataURI renders a blob the way the extension stored captures.
func DataURI(mime string, blob []byte) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob)
}

// ParseDataURI decodes a base64 data URI into its media type and payload.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, apperrors.NewInvalidArgument("snapshot is not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, apperrors.NewInvalidArgument("snapshot data URI has no payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return mime, []byte(payload), nil
	}
	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, apperrors.NewInvalidArgument("snapshot payload: %v", err)
	}
	return mime, blob, nil
}
