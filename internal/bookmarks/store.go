package bookmarks

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/store"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

// StorageKey is the record the Space list is persisted under.
const StorageKey = "webgraph_data"

// SnapshotRemover is the part of the snapshot store a Site delete cascades to.
type SnapshotRemover interface {
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Options configures a Store. The zero value is usable.
type Options struct {
	// SeedExamples loads the bundled example dataset when nothing is persisted.
	SeedExamples bool
	IDs          IDGenerator
	Snapshots    SnapshotRemover
	Now          func() time.Time
	Logger       *zap.Logger
	// Observe is called once per mutation with its outcome.
	Observe func(op string, err error)
}

// Store serialises every mutation of the Space behind one mutex held across
// load, mutate and save.
type Store struct {
	mu        sync.Mutex
	backend   store.Storer
	snapshots SnapshotRemover
	ids       IDGenerator
	now       func() time.Time
	seed      bool
	validate  *validator.Validate
	logger    *zap.Logger
	observe   func(op string, err error)
	version   atomic.Uint64
}

// New creates a bookmark store over backend.
func New(backend store.Storer, opts Options) *Store {
	s := &Store{
		backend:   backend,
		snapshots: opts.Snapshots,
		ids:       opts.IDs,
		now:       opts.Now,
		seed:      opts.SeedExamples,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    opts.Logger,
		observe:   opts.Observe,
	}
	if s.ids == nil {
		s.ids = NewSequentialIDs()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Version increases by one after every committed mutation.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// =============================================================================
// Reads
// =============================================================================

// Space returns a copy of the active Space.
func (s *Store) Space(ctx context.Context) (Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return Space{}, err
	}
	return data.Spaces[0].Clone(), nil
}

// ListBookmarks returns copies of all Sites in insertion order.
func (s *Store) ListBookmarks(ctx context.Context) ([]Site, error) {
	sp, err := s.Space(ctx)
	if err != nil {
		return nil, err
	}
	return sp.Sites, nil
}

// ListTags returns copies of all Tags.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	sp, err := s.Space(ctx)
	if err != nil {
		return nil, err
	}
	return sp.Tags, nil
}

// Get returns the Site with id.
func (s *Store) Get(ctx context.Context, id string) (Site, error) {
	sp, err := s.Space(ctx)
	if err != nil {
		return Site{}, err
	}
	if i := sp.siteIndex(id); i >= 0 {
		return sp.Sites[i], nil
	}
	return Site{}, apperrors.NewNotFound("site %q not found", id)
}

// =============================================================================
// Site mutations
// =============================================================================

// AddBookmark validates in, resolves its tags and appends a new Site.
func (s *Store) AddBookmark(ctx context.Context, in *SiteInput) (Site, error) {
	if in == nil {
		return Site{}, apperrors.NewInvalidArgument("bookmark input is required")
	}
	if err := s.validate.Struct(in); err != nil {
		return Site{}, apperrors.NewInvalidArgument("invalid bookmark: %v", err)
	}

	var created Site
	err := s.mutate(ctx, "add_bookmark", func(sp *Space) error {
		site := Site{
			ID:          s.ids.Next("site", sp.hasSiteID),
			Title:       strings.TrimSpace(in.Title),
			URL:         strings.TrimSpace(in.URL),
			Tags:        sp.resolveTags(in.Tags, s.ids),
			DateCreated: in.DateCreated,
			Visits:      in.Visits,
			Notes:       in.Notes,
			Favicon:     in.Favicon,
			SnapshotRef: in.SnapshotRef,
		}
		if site.Title == "" {
			site.Title = DefaultTitle
		}
		if site.DateCreated == "" {
			site.DateCreated = s.now().Format("2006-01-02")
		}
		sp.Sites = append(sp.Sites, site)
		created = site.Clone()
		return nil
	})
	if err != nil {
		return Site{}, err
	}
	s.logger.Debug("bookmark added", zap.String("id", created.ID), zap.Strings("tags", created.Tags))
	return created, nil
}

// UpdateBookmark merges the present fields of patch into the Site. A new
// tag list is resolved like on add and orphaned tags are removed.
func (s *Store) UpdateBookmark(ctx context.Context, id string, patch SitePatch) (Site, error) {
	if err := s.validatePatch(patch); err != nil {
		return Site{}, err
	}

	var updated Site
	err := s.mutate(ctx, "update_bookmark", func(sp *Space) error {
		i := sp.siteIndex(id)
		if i < 0 {
			return apperrors.NewNotFound("site %q not found", id)
		}
		site := &sp.Sites[i]
		if patch.Title != nil {
			site.Title = strings.TrimSpace(*patch.Title)
			if site.Title == "" {
				site.Title = DefaultTitle
			}
		}
		if patch.URL != nil {
			site.URL = strings.TrimSpace(*patch.URL)
		}
		if patch.Notes != nil {
			site.Notes = *patch.Notes
		}
		if patch.Favicon != nil {
			site.Favicon = *patch.Favicon
		}
		if patch.Visits != nil {
			site.Visits = *patch.Visits
		}
		if patch.SnapshotRef != nil {
			site.SnapshotRef = *patch.SnapshotRef
		}
		if patch.Tags != nil {
			site.Tags = sp.resolveTags(*patch.Tags, s.ids)
			if removed := sp.removeOrphans(); len(removed) > 0 {
				s.logOrphans(removed)
			}
		}
		updated = sp.Sites[i].Clone()
		return nil
	})
	if err != nil {
		return Site{}, err
	}
	return updated, nil
}

func (s *Store) validatePatch(patch SitePatch) error {
	if patch.URL != nil {
		if err := s.validate.Var(strings.TrimSpace(*patch.URL), "required,url"); err != nil {
			return apperrors.NewInvalidArgument("invalid url %q", *patch.URL)
		}
	}
	if patch.Favicon != nil && *patch.Favicon != "" {
		if err := s.validate.Var(*patch.Favicon, "url"); err != nil {
			return apperrors.NewInvalidArgument("invalid favicon %q", *patch.Favicon)
		}
	}
	if patch.Visits != nil && *patch.Visits < 0 {
		return apperrors.NewInvalidArgument("visits must be >= 0, got %d", *patch.Visits)
	}
	return nil
}

// RemoveBookmark deletes the Site, removes tags left without sites and then
// deletes the Site's snapshot.
func (s *Store) RemoveBookmark(ctx context.Context, id string) error {
	err := s.mutate(ctx, "remove_bookmark", func(sp *Space) error {
		i := sp.siteIndex(id)
		if i < 0 {
			return apperrors.NewNotFound("site %q not found", id)
		}
		sp.Sites = append(sp.Sites[:i], sp.Sites[i+1:]...)
		if removed := sp.removeOrphans(); len(removed) > 0 {
			s.logOrphans(removed)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Delete(ctx, id); err != nil {
		s.logger.Error("snapshot cascade failed", zap.String("site", id), zap.Error(err))
		return apperrors.Wrap(err, "delete snapshot of "+id)
	}
	return nil
}

// Visit increments the visit counter of the Site.
func (s *Store) Visit(ctx context.Context, id string) (Site, error) {
	var visited Site
	err := s.mutate(ctx, "visit", func(sp *Space) error {
		i := sp.siteIndex(id)
		if i < 0 {
			return apperrors.NewNotFound("site %q not found", id)
		}
		sp.Sites[i].Visits++
		visited = sp.Sites[i].Clone()
		return nil
	})
	return visited, err
}

// =============================================================================
// Tag mutations
// =============================================================================

// AddTag returns the tag matching name case-insensitively, creating it if
// needed. A tag created here stays until the next orphan cleanup.
func (s *Store) AddTag(ctx context.Context, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, apperrors.NewInvalidArgument("tag name is required")
	}

	var tag Tag
	err := s.mutate(ctx, "add_tag", func(sp *Space) error {
		if i := sp.tagIndexByName(name); i >= 0 {
			tag = sp.Tags[i]
			return nil
		}
		tag = Tag{ID: s.ids.Next("tag", sp.hasTagID), Name: name}
		sp.Tags = append(sp.Tags, tag)
		return nil
	})
	return tag, err
}

// RemoveTag deletes the tag and strips its name from every Site.
func (s *Store) RemoveTag(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove_tag", func(sp *Space) error {
		i := sp.tagIndexByID(id)
		if i < 0 {
			return apperrors.NewNotFound("tag %q not found", id)
		}
		name := sp.Tags[i].Name
		sp.Tags = append(sp.Tags[:i], sp.Tags[i+1:]...)
		sp.stripTag(name)
		return nil
	})
}

// RenameTag changes the tag's name and rewrites every Site reference.
func (s *Store) RenameTag(ctx context.Context, id, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, apperrors.NewInvalidArgument("tag name is required")
	}

	var renamed Tag
	err := s.mutate(ctx, "rename_tag", func(sp *Space) error {
		i := sp.tagIndexByID(id)
		if i < 0 {
			return apperrors.NewNotFound("tag %q not found", id)
		}
		if j := sp.tagIndexByName(name); j >= 0 && j != i {
			return apperrors.NewInvalidArgument("tag %q already exists", sp.Tags[j].Name)
		}
		sp.renameTag(sp.Tags[i].Name, name)
		sp.Tags[i].Name = name
		renamed = sp.Tags[i]
		return nil
	})
	return renamed, err
}

// CleanupOrphans removes every tag no Site references.
func (s *Store) CleanupOrphans(ctx context.Context) ([]Tag, error) {
	var removed []Tag
	err := s.mutate(ctx, "cleanup_orphans", func(sp *Space) error {
		removed = sp.removeOrphans()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logOrphans(removed)
	}
	return removed, nil
}

// ClearAll resets to an empty Space and clears all snapshots.
func (s *Store) ClearAll(ctx context.Context) error {
	err := s.mutate(ctx, "clear_all", func(sp *Space) error {
		*sp = DefaultSpace()
		return nil
	})
	if err != nil {
		return err
	}
	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Clear(ctx); err != nil {
		s.logger.Error("snapshot clear failed", zap.Error(err))
		return apperrors.Wrap(err, "clear snapshots")
	}
	return nil
}

// =============================================================================
// Persistence
// =============================================================================

// mutate runs fn against a freshly loaded Space and saves the result. Nothing
// is written when fn fails.
func (s *Store) mutate(ctx context.Context, op string, fn func(sp *Space) error) (err error) {
	defer func() {
		if s.observe != nil {
			s.observe(op, err)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&data.Spaces[0]); err != nil {
		return err
	}
	if err := store.SetJSON(ctx, s.backend, StorageKey, data); err != nil {
		s.logger.Error("save space failed", zap.String("op", op), zap.Error(err))
		return apperrors.NewStorageFailure("save space", err)
	}
	s.version.Add(1)
	return nil
}

// load reads the persisted record, synthesizing the initial Space when
// nothing has been stored yet. Callers hold s.mu.
func (s *Store) load(ctx context.Context) (*Data, error) {
	data, found, err := store.GetJSON[Data](ctx, s.backend, StorageKey)
	if err != nil {
		s.logger.Error("load space failed", zap.Error(err))
		return nil, apperrors.NewStorageFailure("load space", err)
	}
	if !found || data == nil || len(data.Spaces) == 0 {
		initial, err := s.initialSpace()
		if err != nil {
			return nil, err
		}
		return &Data{Spaces: []Space{initial}}, nil
	}
	sp := &data.Spaces[0]
	if sp.Tags == nil {
		sp.Tags = []Tag{}
	}
	if sp.Sites == nil {
		sp.Sites = []Site{}
	}
	for i := range sp.Sites {
		if sp.Sites[i].Tags == nil {
			sp.Sites[i].Tags = []string{}
		}
	}
	return data, nil
}

func (s *Store) initialSpace() (Space, error) {
	if !s.seed {
		return DefaultSpace(), nil
	}
	sp, err := ExampleSpace()
	if err != nil {
		return Space{}, apperrors.NewStorageFailure("seed example space", err)
	}
	return sp, nil
}

func (s *Store) logOrphans(removed []Tag) {
	names := make([]string, len(removed))
	for i, t := range removed {
		names[i] = t.Name
	}
	s.logger.Debug("orphan tags removed", zap.Strings("tags", names))
}
