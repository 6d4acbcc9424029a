package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/settings"
	"github.com/raphataylor/WebGraph/internal/snapshots"
	"github.com/raphataylor/WebGraph/internal/view"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

// maxBody caps request payloads; snapshots are the largest.
const maxBody = 16 << 20

type nameRequest struct {
	Name string `json:"name"`
}

type snapshotBody struct {
	ID       string `json:"id,omitempty"`
	Snapshot string `json:"snapshot"`
}

type dragRequest struct {
	ID    string  `json:"id"`
	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type zoomRequest struct {
	Factor float64 `json:"factor"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type searchRequest struct {
	Query string `json:"query"`
}

// =============================================================================
// Bookmarks
// =============================================================================

func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	sites, err := s.bookmarks.ListBookmarks(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sites)
}

func (s *Server) getBookmark(w http.ResponseWriter, r *http.Request) {
	site, err := s.bookmarks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, site)
}

func (s *Server) createBookmark(w http.ResponseWriter, r *http.Request) {
	var in bookmarks.SiteInput
	if !s.decode(w, r, &in) {
		return
	}
	var site bookmarks.Site
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		site, err = c.AddBookmark(r.Context(), &in)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, site)
}

func (s *Server) updateBookmark(w http.ResponseWriter, r *http.Request) {
	var patch bookmarks.SitePatch
	if !s.decode(w, r, &patch) {
		return
	}
	id := chi.URLParam(r, "id")
	var site bookmarks.Site
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		site, err = c.UpdateBookmark(r.Context(), id, patch)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, site)
}

func (s *Server) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		return c.RemoveBookmark(r.Context(), id)
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) visitBookmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var site bookmarks.Site
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		site, err = c.Visit(r.Context(), id)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, site)
}

func (s *Server) addSiteTag(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	var site bookmarks.Site
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		site, err = c.AddTagToSite(r.Context(), id, req.Name)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, site)
}

func (s *Server) removeSiteTag(w http.ResponseWriter, r *http.Request) {
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")
	var site bookmarks.Site
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		site, err = c.RemoveTagFromSite(r.Context(), id, name)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, site)
}

// =============================================================================
// Tags
// =============================================================================

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.bookmarks.ListTags(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tags)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	var tag bookmarks.Tag
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		tag, err = c.AddTag(r.Context(), req.Name)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, tag)
}

func (s *Server) renameTag(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	var tag bookmarks.Tag
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		tag, err = c.RenameTag(r.Context(), id, req.Name)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tag)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		return c.RemoveTag(r.Context(), id)
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cleanupTags(w http.ResponseWriter, r *http.Request) {
	var removed []bookmarks.Tag
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		removed, err = c.CleanupOrphans(r.Context())
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if removed == nil {
		removed = []bookmarks.Tag{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) clearSpace(w http.ResponseWriter, r *http.Request) {
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		return c.ClearAll(r.Context())
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Snapshots
// =============================================================================

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	blob, found, err := s.snapshots.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !found {
		s.respondError(w, apperrors.NewNotFound("no snapshot for %q", id))
		return
	}
	mime := mimetype.Detect(blob).String()
	s.respondJSON(w, http.StatusOK, snapshotBody{ID: id, Snapshot: snapshots.DataURI(mime, blob)})
}

func (s *Server) putSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotBody
	if !s.decode(w, r, &req) {
		return
	}
	_, blob, err := snapshots.ParseDataURI(req.Snapshot)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.snapshots.Put(r.Context(), chi.URLParam(r, "id"), blob); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Settings
// =============================================================================

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	var st settings.Settings
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		st = c.Settings()
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]float64
	if !s.decode(w, r, &values) {
		return
	}
	var st settings.Settings
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		st, err = c.ApplySettings(r.Context(), values)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) resetSettings(w http.ResponseWriter, r *http.Request) {
	var st settings.Settings
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		st, err = c.ResetSettings(r.Context())
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// =============================================================================
// Graph view
// =============================================================================

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	var f view.Frame
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		f = c.Frame()
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		if err := view.WriteSVG(w, f); err != nil {
			s.logger.Error("failed to write svg", zap.Error(err))
		}
		return
	}
	s.respondJSON(w, http.StatusOK, f)
}

func (s *Server) drag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		switch req.Phase {
		case "start":
			return c.DragStart(req.ID)
		case "move":
			return c.Drag(req.ID, req.X, req.Y)
		case "end":
			return c.DragEnd(req.ID)
		default:
			return apperrors.NewInvalidArgument("unknown drag phase %q", req.Phase)
		}
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) zoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.viewportOp(w, r, func(c *view.Controller) view.Viewport {
		return c.Zoom(req.Factor, req.X, req.Y)
	})
}

func (s *Server) pan(w http.ResponseWriter, r *http.Request) {
	var req panRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.viewportOp(w, r, func(c *view.Controller) view.Viewport {
		return c.Pan(req.DX, req.DY)
	})
}

func (s *Server) resize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.respondError(w, apperrors.NewInvalidArgument("viewport size must be positive"))
		return
	}
	s.viewportOp(w, r, func(c *view.Controller) view.Viewport {
		c.Resize(req.Width, req.Height)
		return c.Viewport()
	})
}

func (s *Server) resetView(w http.ResponseWriter, r *http.Request) {
	s.viewportOp(w, r, func(c *view.Controller) view.Viewport {
		return c.ResetView()
	})
}

func (s *Server) viewportOp(w http.ResponseWriter, r *http.Request, fn func(c *view.Controller) view.Viewport) {
	var vp view.Viewport
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		vp = fn(c)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vp)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	var matches int
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		matches = c.Search(req.Query)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"query": req.Query, "matches": matches})
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var d view.Detail
	err := s.loop.Do(r.Context(), func(c *view.Controller) (err error) {
		d, err = c.Select(r.Context(), id)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	err := s.loop.Do(r.Context(), func(c *view.Controller) error {
		c.ClearSelection()
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Encoding
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.respondError(w, apperrors.NewInvalidArgument("malformed request body: %v", err))
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	body := errorBody{Type: string(apperrors.TypeOf(err)), Message: err.Error()}
	if body.Type == "" {
		body.Type = "INTERNAL"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respondJSON(w, status, map[string]errorBody{"error": body})
}

func statusOf(err error) int {
	switch {
	case apperrors.IsInvalidArgument(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, view.ErrLoopStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
