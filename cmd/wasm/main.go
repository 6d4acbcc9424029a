//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"syscall/js"
	"time"

	"github.com/hack-pad/hackpadfs/indexeddb"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/config"
	"github.com/raphataylor/WebGraph/internal/logging"
	"github.com/raphataylor/WebGraph/internal/snapshots"
	"github.com/raphataylor/WebGraph/internal/store"
	"github.com/raphataylor/WebGraph/internal/view"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
	"github.com/raphataylor/WebGraph/pkg/sab"
)

// Version info
const Version = "0.3.0"

// Global state
var (
	host    *app.App
	loop    *view.Loop
	cancel  context.CancelFunc
	buffer  *sab.SharedBuffer
	onFrame js.Value
)

var errNotInitialized = errors.New("webgraph not initialized")

// initOptions is the optional JSON argument of initialize.
type initOptions struct {
	Database     string  `json:"database"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Seed         uint64  `json:"seed"`
	SeedExamples *bool   `json:"seedExamples"`
	IDStrategy   string  `json:"idStrategy"`
	TickMillis   int     `json:"tickMillis"`
	LogLevel     string  `json:"logLevel"`
}

func main() {
	println("[WebGraph] WASM Ready v" + Version)

	// Register exports
	js.Global().Set("WebGraph", js.ValueOf(map[string]interface{}{
		"version":    js.FuncOf(getVersion),
		"initialize": js.FuncOf(initialize),
		"close":      js.FuncOf(closeHost),
		"onFrame":    js.FuncOf(setOnFrame),
		"frame":      js.FuncOf(frame),
		// Bookmarks
		"listBookmarks":     js.FuncOf(listBookmarks),
		"addBookmark":       js.FuncOf(addBookmark),
		"updateBookmark":    js.FuncOf(updateBookmark),
		"removeBookmark":    js.FuncOf(removeBookmark),
		"updateNotes":       js.FuncOf(updateNotes),
		"visit":             js.FuncOf(visit),
		"addTagToSite":      js.FuncOf(addTagToSite),
		"removeTagFromSite": js.FuncOf(removeTagFromSite),
		// Tags
		"listTags":       js.FuncOf(listTags),
		"addTag":         js.FuncOf(addTag),
		"removeTag":      js.FuncOf(removeTag),
		"renameTag":      js.FuncOf(renameTag),
		"cleanupOrphans": js.FuncOf(cleanupOrphans),
		"clearAll":       js.FuncOf(clearAll),
		// Settings
		"getSettings":   js.FuncOf(getSettings),
		"setSettings":   js.FuncOf(setSettings),
		"resetSettings": js.FuncOf(resetSettings),
		// Snapshots
		"putSnapshot":    js.FuncOf(putSnapshot),
		"getSnapshot":    js.FuncOf(getSnapshot),
		"deleteSnapshot": js.FuncOf(deleteSnapshot),
		// Interaction
		"drag":      js.FuncOf(drag),
		"zoom":      js.FuncOf(zoom),
		"pan":       js.FuncOf(pan),
		"resize":    js.FuncOf(resize),
		"resetView": js.FuncOf(resetView),
		"search":    js.FuncOf(search),
		"select":    js.FuncOf(selectNode),
	}))

	select {}
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initialize opens the IndexedDB stores and starts the layout loop.
// Args: [optionsJSON string (optional), sharedArrayBuffer (optional)]
func initialize(this js.Value, args []js.Value) interface{} {
	var opts initOptions
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
			return errorResult(apperrors.NewInvalidArgument("invalid options json: %v", err))
		}
	}
	var sabValue js.Value
	if len(args) > 1 {
		sabValue = args[1]
	}

	return promise(func(ctx context.Context) (any, error) {
		shutdown()

		cfg := config.Default()
		cfg.Storage.Driver = "fs"
		if opts.Width > 0 {
			cfg.Viewport.Width = opts.Width
		}
		if opts.Height > 0 {
			cfg.Viewport.Height = opts.Height
		}
		if opts.Seed != 0 {
			cfg.Layout.Seed = opts.Seed
		}
		if opts.SeedExamples != nil {
			cfg.Bookmarks.SeedExamples = *opts.SeedExamples
		}
		if opts.IDStrategy != "" {
			cfg.Bookmarks.IDStrategy = opts.IDStrategy
		}
		if opts.TickMillis > 0 {
			cfg.Layout.TickInterval = time.Duration(opts.TickMillis) * time.Millisecond
		}
		if opts.LogLevel != "" {
			cfg.Logging.Level = opts.LogLevel
		}
		if opts.Database == "" {
			opts.Database = "webgraph"
		}
		if err := cfg.Validate(); err != nil {
			return nil, apperrors.NewInvalidArgument("%v", err)
		}

		logger, err := logging.New(cfg.Logging.Level, false)
		if err != nil {
			return nil, err
		}

		fs, err := indexeddb.NewFS(ctx, opts.Database, indexeddb.Options{})
		if err != nil {
			return nil, apperrors.NewStorageFailure("failed to create idb fs", err)
		}
		kv, err := store.NewFSStore(fs, "data")
		if err != nil {
			return nil, apperrors.NewStorageFailure("open data store", err)
		}
		blobKV, err := store.NewFSStore(fs, "snapshots")
		if err != nil {
			return nil, apperrors.NewStorageFailure("open snapshot store", err)
		}

		a, err := app.NewWithBackends(ctx, cfg, logger, kv, blobKV)
		if err != nil {
			return nil, err
		}

		host = a
		buffer = sab.New(sabValue)
		loopCtx, stop := context.WithCancel(context.Background())
		cancel = stop
		loop = a.NewLoop()
		loop.Start(loopCtx)
		go publishFrames(loopCtx, loop, logger)

		logger.Info("webgraph initialized",
			zap.String("database", opts.Database),
			zap.Bool("sharedBuffer", buffer != nil))
		return "initialized", nil
	})
}

// publishFrames forwards loop frames to the host: packed positions go to the
// shared buffer every tick, the full JSON frame to onFrame whenever the node
// set changes or no buffer is attached.
func publishFrames(ctx context.Context, l *view.Loop, logger *zap.Logger) {
	frames, unsubscribe := l.Subscribe()
	defer unsubscribe()

	var last view.Frame
	sent := false
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			if buffer != nil && !buffer.WriteFrame(f.Packed()) {
				logger.Warn("frame does not fit shared buffer", zap.Int("nodes", len(f.Nodes)))
			}
			if buffer == nil || !sent || !last.SameNodes(f) {
				if onFrame.Type() == js.TypeFunction {
					if raw, err := json.Marshal(f); err == nil {
						onFrame.Invoke(string(raw))
					}
				}
				last, sent = f, true
			}
		}
	}
}

// closeHost stops the loop and releases the stores.
func closeHost(this js.Value, args []js.Value) interface{} {
	shutdown()
	return successResult("closed")
}

func shutdown() {
	if loop != nil {
		loop.Stop()
		loop.Wait()
		loop = nil
	}
	if cancel != nil {
		cancel()
		cancel = nil
	}
	if host != nil {
		if err := host.Close(); err != nil {
			host.Logger.Warn("close stores", zap.Error(err))
		}
		host = nil
	}
}

// setOnFrame registers the frame callback.
// Args: [callback function]
func setOnFrame(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return errorResult(apperrors.NewInvalidArgument("onFrame requires a function"))
	}
	onFrame = args[0]
	return successResult("registered")
}

// frame returns the current frame as JSON.
func frame(this js.Value, args []js.Value) interface{} {
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.Frame(), nil
	})
}

// ===== Bookmarks =====

func listBookmarks(this js.Value, args []js.Value) interface{} {
	return promise(func(ctx context.Context) (any, error) {
		if host == nil {
			return nil, errNotInitialized
		}
		return host.Bookmarks.ListBookmarks(ctx)
	})
}

// addBookmark: [siteJSON string]
func addBookmark(this js.Value, args []js.Value) interface{} {
	var in bookmarks.SiteInput
	if err := decodeArg(args, 0, &in); err != nil {
		return errorResult(err)
	}
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.AddBookmark(ctx, &in)
	})
}

// updateBookmark: [id string, patchJSON string]
func updateBookmark(this js.Value, args []js.Value) interface{} {
	var patch bookmarks.SitePatch
	if err := decodeArg(args, 1, &patch); err != nil {
		return errorResult(err)
	}
	id := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.UpdateBookmark(ctx, id, patch)
	})
}

// removeBookmark: [id string]
func removeBookmark(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return "removed " + id, c.RemoveBookmark(ctx, id)
	})
}

// visit: [id string]
func visit(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.Visit(ctx, id)
	})
}

// updateNotes: [id string, notes string]
func updateNotes(this js.Value, args []js.Value) interface{} {
	id, notes := stringArg(args, 0), stringArg(args, 1)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.UpdateNotes(ctx, id, notes)
	})
}

// addTagToSite: [id string, name string]
func addTagToSite(this js.Value, args []js.Value) interface{} {
	id, name := stringArg(args, 0), stringArg(args, 1)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.AddTagToSite(ctx, id, name)
	})
}

// removeTagFromSite: [id string, name string]
func removeTagFromSite(this js.Value, args []js.Value) interface{} {
	id, name := stringArg(args, 0), stringArg(args, 1)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.RemoveTagFromSite(ctx, id, name)
	})
}

// ===== Tags =====

func listTags(this js.Value, args []js.Value) interface{} {
	return promise(func(ctx context.Context) (any, error) {
		if host == nil {
			return nil, errNotInitialized
		}
		return host.Bookmarks.ListTags(ctx)
	})
}

// addTag: [name string]
func addTag(this js.Value, args []js.Value) interface{} {
	name := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.AddTag(ctx, name)
	})
}

// removeTag: [id string]
func removeTag(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return "removed " + id, c.RemoveTag(ctx, id)
	})
}

// renameTag: [id string, name string]
func renameTag(this js.Value, args []js.Value) interface{} {
	id, name := stringArg(args, 0), stringArg(args, 1)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.RenameTag(ctx, id, name)
	})
}

func cleanupOrphans(this js.Value, args []js.Value) interface{} {
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.CleanupOrphans(ctx)
	})
}

func clearAll(this js.Value, args []js.Value) interface{} {
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return "cleared", c.ClearAll(ctx)
	})
}

// ===== Settings =====

func getSettings(this js.Value, args []js.Value) interface{} {
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.Settings(), nil
	})
}

// setSettings: [valuesJSON string] e.g. {"linkDistance": 80}
func setSettings(this js.Value, args []js.Value) interface{} {
	var values map[string]float64
	if err := decodeArg(args, 0, &values); err != nil {
		return errorResult(err)
	}
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.ApplySettings(ctx, values)
	})
}

func resetSettings(this js.Value, args []js.Value) interface{} {
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.ResetSettings(ctx)
	})
}

// ===== Snapshots =====

// putSnapshot: [id string, dataURI string]
func putSnapshot(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	_, blob, err := snapshots.ParseDataURI(stringArg(args, 1))
	if err != nil {
		return errorResult(err)
	}
	return promise(func(ctx context.Context) (any, error) {
		if host == nil {
			return nil, errNotInitialized
		}
		return "stored " + id, host.Snapshots.Put(ctx, id, blob)
	})
}

// getSnapshot: [id string, mime string (optional)]
func getSnapshot(this js.Value, args []js.Value) interface{} {
	id, mime := stringArg(args, 0), stringArg(args, 1)
	return promise(func(ctx context.Context) (any, error) {
		if host == nil {
			return nil, errNotInitialized
		}
		blob, found, err := host.Snapshots.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, apperrors.NewNotFound("no snapshot for %q", id)
		}
		return map[string]string{"id": id, "snapshot": snapshots.DataURI(mime, blob)}, nil
	})
}

// deleteSnapshot: [id string]
func deleteSnapshot(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	return promise(func(ctx context.Context) (any, error) {
		if host == nil {
			return nil, errNotInitialized
		}
		return "deleted " + id, host.Snapshots.Delete(ctx, id)
	})
}

// ===== Interaction =====

// drag: [id string, phase "start"|"move"|"end", x number, y number]
func drag(this js.Value, args []js.Value) interface{} {
	id, phase := stringArg(args, 0), stringArg(args, 1)
	x, y := floatArg(args, 2), floatArg(args, 3)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		var err error
		switch phase {
		case "start":
			err = c.DragStart(id)
		case "move":
			err = c.Drag(id, x, y)
		case "end":
			err = c.DragEnd(id)
		default:
			err = apperrors.NewInvalidArgument("unknown drag phase %q", phase)
		}
		return phase, err
	})
}

// zoom: [factor number, x number, y number]
func zoom(this js.Value, args []js.Value) interface{} {
	k, x, y := floatArg(args, 0), floatArg(args, 1), floatArg(args, 2)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.Zoom(k, x, y), nil
	})
}

// pan: [dx number, dy number]
func pan(this js.Value, args []js.Value) interface{} {
	dx, dy := floatArg(args, 0), floatArg(args, 1)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.Pan(dx, dy), nil
	})
}

// resize: [width number, height number]
func resize(this js.Value, args []js.Value) interface{} {
	w, h := floatArg(args, 0), floatArg(args, 1)
	if w <= 0 || h <= 0 {
		return errorResult(apperrors.NewInvalidArgument("viewport size must be positive"))
	}
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		c.Resize(w, h)
		return c.Viewport(), nil
	})
}

func resetView(this js.Value, args []js.Value) interface{} {
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return c.ResetView(), nil
	})
}

// search: [query string]
func search(this js.Value, args []js.Value) interface{} {
	query := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		return map[string]any{"query": query, "matches": c.Search(query)}, nil
	})
}

// select: [id string] (empty id clears the selection)
func selectNode(this js.Value, args []js.Value) interface{} {
	id := stringArg(args, 0)
	return withController(func(ctx context.Context, c *view.Controller) (any, error) {
		if id == "" {
			c.ClearSelection()
			return nil, nil
		}
		return c.Select(ctx, id)
	})
}

// ===== Helpers =====

// promise runs fn off the JS event loop, since IndexedDB calls block until
// their callbacks fire, and resolves with a result envelope.
func promise(fn func(ctx context.Context) (any, error)) js.Value {
	executor := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve := args[0]
		go func() {
			v, err := fn(context.Background())
			if err != nil {
				resolve.Invoke(errorResult(err))
				return
			}
			resolve.Invoke(successResult(v))
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

// withController runs fn on the layout loop.
func withController(fn func(ctx context.Context, c *view.Controller) (any, error)) js.Value {
	return promise(func(ctx context.Context) (any, error) {
		l := loop
		if l == nil {
			return nil, errNotInitialized
		}
		var out any
		err := l.Do(ctx, func(c *view.Controller) (err error) {
			out, err = fn(ctx, c)
			return err
		})
		return out, err
	})
}

func stringArg(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func floatArg(args []js.Value, i int) float64 {
	if i >= len(args) || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Float()
}

func decodeArg(args []js.Value, i int, v any) error {
	raw := stringArg(args, i)
	if raw == "" {
		return apperrors.NewInvalidArgument("argument %d must be a JSON string", i)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return apperrors.NewInvalidArgument("argument %d: %v", i, err)
	}
	return nil
}

// Helper: Create error result
func errorResult(err error) interface{} {
	result := map[string]interface{}{
		"error": err.Error(),
		"type":  apperrors.TypeOf(err),
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(data any) interface{} {
	result := map[string]interface{}{
		"success": data,
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return errorResult(err)
	}
	return string(jsonBytes)
}
