package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// FSStore keeps one file per key inside a directory of a hackpadfs filesystem.
// In the browser the filesystem is IndexedDB; natively it is a directory on disk.
type FSStore struct {
	mu  sync.RWMutex
	fs  hackpadfs.FS
	dir string
}

// NewFSStore creates the directory if needed and returns a store rooted in it.
func NewFSStore(fsys hackpadfs.FS, dir string) (*FSStore, error) {
	if dir == "" {
		dir = "."
	}
	if dir != "." {
		if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return &FSStore{fs: fsys, dir: dir}, nil
}

// OpenDir exposes a native directory as a hackpadfs filesystem, creating it if needed.
func OpenDir(dir string) (hackpadfs.FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", abs, err)
	}
	root := osfs.NewFS()
	return root.Sub(strings.TrimPrefix(filepath.ToSlash(abs), "/"))
}

// Close is a no-op; the filesystem is owned by the caller.
func (s *FSStore) Close() error {
	return nil
}

func (s *FSStore) file(key string) string {
	return path.Join(s.dir, url.PathEscape(key))
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := hackpadfs.ReadFile(s.fs, s.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}
	return data, true, nil
}

func (s *FSStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := hackpadfs.WriteFullFile(s.fs, s.file(key), value, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := hackpadfs.Remove(s.fs, s.file(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *FSStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := hackpadfs.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Compile-time interface check
var _ Storer = (*FSStore)(nil)
