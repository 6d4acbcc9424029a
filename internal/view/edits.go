package view

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

// edit runs a store mutation and re-projects. When the mutation fails
// without committing, the scene and simulation are left as they were.
func (c *Controller) edit(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err != nil {
		c.logger.Warn("edit failed", zap.String("op", op), zap.Error(err))
		if c.bookmarks.Version() == c.version {
			return err
		}
	}
	if rerr := c.Refresh(ctx); rerr != nil && err == nil {
		return rerr
	}
	return err
}

// AddBookmark adds a site and projects it.
func (c *Controller) AddBookmark(ctx context.Context, in *bookmarks.SiteInput) (bookmarks.Site, error) {
	var site bookmarks.Site
	err := c.edit(ctx, "add_bookmark", func() (err error) {
		site, err = c.bookmarks.AddBookmark(ctx, in)
		return err
	})
	return site, err
}

// UpdateBookmark patches a site.
func (c *Controller) UpdateBookmark(ctx context.Context, id string, patch bookmarks.SitePatch) (bookmarks.Site, error) {
	var site bookmarks.Site
	err := c.edit(ctx, "update_bookmark", func() (err error) {
		site, err = c.bookmarks.UpdateBookmark(ctx, id, patch)
		return err
	})
	return site, err
}

// UpdateNotes replaces the notes of a site.
func (c *Controller) UpdateNotes(ctx context.Context, id, notes string) (bookmarks.Site, error) {
	return c.UpdateBookmark(ctx, id, bookmarks.SitePatch{Notes: &notes})
}

// AddTagToSite appends a tag name to a site's tags.
func (c *Controller) AddTagToSite(ctx context.Context, id, name string) (bookmarks.Site, error) {
	var site bookmarks.Site
	err := c.edit(ctx, "add_site_tag", func() error {
		cur, err := c.bookmarks.Get(ctx, id)
		if err != nil {
			return err
		}
		tags := append(cur.Tags, name)
		site, err = c.bookmarks.UpdateBookmark(ctx, id, bookmarks.SitePatch{Tags: &tags})
		return err
	})
	return site, err
}

// RemoveTagFromSite drops a tag name from a site; the tag goes away with its
// last site. A name the site does not carry is NotFound.
func (c *Controller) RemoveTagFromSite(ctx context.Context, id, name string) (bookmarks.Site, error) {
	var site bookmarks.Site
	err := c.edit(ctx, "remove_site_tag", func() error {
		cur, err := c.bookmarks.Get(ctx, id)
		if err != nil {
			return err
		}
		if !cur.HasTag(strings.TrimSpace(name)) {
			return apperrors.NewNotFound("site %q has no tag %q", id, name)
		}
		tags := make([]string, 0, len(cur.Tags))
		for _, t := range cur.Tags {
			if !equalFoldTrim(t, name) {
				tags = append(tags, t)
			}
		}
		site, err = c.bookmarks.UpdateBookmark(ctx, id, bookmarks.SitePatch{Tags: &tags})
		return err
	})
	return site, err
}

// RemoveBookmark deletes a site.
func (c *Controller) RemoveBookmark(ctx context.Context, id string) error {
	return c.edit(ctx, "remove_bookmark", func() error {
		return c.bookmarks.RemoveBookmark(ctx, id)
	})
}

// Visit records a visit of a site.
func (c *Controller) Visit(ctx context.Context, id string) (bookmarks.Site, error) {
	var site bookmarks.Site
	err := c.edit(ctx, "visit", func() (err error) {
		site, err = c.bookmarks.Visit(ctx, id)
		return err
	})
	return site, err
}

// AddTag creates a standalone tag.
func (c *Controller) AddTag(ctx context.Context, name string) (bookmarks.Tag, error) {
	var tag bookmarks.Tag
	err := c.edit(ctx, "add_tag", func() (err error) {
		tag, err = c.bookmarks.AddTag(ctx, name)
		return err
	})
	return tag, err
}

// RemoveTag deletes a tag from every site.
func (c *Controller) RemoveTag(ctx context.Context, id string) error {
	return c.edit(ctx, "remove_tag", func() error {
		return c.bookmarks.RemoveTag(ctx, id)
	})
}

// RenameTag renames a tag.
func (c *Controller) RenameTag(ctx context.Context, id, name string) (bookmarks.Tag, error) {
	var tag bookmarks.Tag
	err := c.edit(ctx, "rename_tag", func() (err error) {
		tag, err = c.bookmarks.RenameTag(ctx, id, name)
		return err
	})
	return tag, err
}

// CleanupOrphans removes unreferenced tags.
func (c *Controller) CleanupOrphans(ctx context.Context) ([]bookmarks.Tag, error) {
	var removed []bookmarks.Tag
	err := c.edit(ctx, "cleanup_orphans", func() (err error) {
		removed, err = c.bookmarks.CleanupOrphans(ctx)
		return err
	})
	return removed, err
}

// ClearAll empties the Space.
func (c *Controller) ClearAll(ctx context.Context) error {
	return c.edit(ctx, "clear_all", func() error {
		return c.bookmarks.ClearAll(ctx)
	})
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
