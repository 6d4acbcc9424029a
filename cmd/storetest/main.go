package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/settings"
	"github.com/raphataylor/WebGraph/internal/snapshots"
	"github.com/raphataylor/WebGraph/internal/store"
)

func main() {
	fmt.Println("Testing MemStore...")
	testBackend(store.NewMemStore())

	fmt.Println("\nTesting SQLiteStore...")
	sq, err := store.NewSQLiteStore()
	if err != nil {
		log.Fatalf("NewSQLiteStore failed: %v", err)
	}
	testBackend(sq)

	fmt.Println("\nTesting FSStore...")
	dir, err := os.MkdirTemp("", "webgraph-storetest")
	if err != nil {
		log.Fatalf("MkdirTemp failed: %v", err)
	}
	defer os.RemoveAll(dir)
	fsys, err := store.OpenDir(dir)
	if err != nil {
		log.Fatalf("OpenDir failed: %v", err)
	}
	fsStore, err := store.NewFSStore(fsys, "kv")
	if err != nil {
		log.Fatalf("NewFSStore failed: %v", err)
	}
	testBackend(fsStore)

	fmt.Println("\n✅ All tests passed!")
}

func testBackend(s store.Storer) {
	defer s.Close()
	ctx := context.Background()

	snaps := snapshots.New(s, nil)
	marks := bookmarks.New(s, bookmarks.Options{Snapshots: snaps})

	site, err := marks.AddBookmark(ctx, &bookmarks.SiteInput{
		Title: "Example",
		URL:   "https://example.com",
		Tags:  []string{"Example", "demo"},
	})
	if err != nil {
		log.Fatalf("AddBookmark failed: %v", err)
	}
	fmt.Println("  ✓ AddBookmark works")

	got, err := marks.Get(ctx, site.ID)
	if err != nil {
		log.Fatalf("Get failed: %v", err)
	}
	if len(got.Tags) != 2 {
		log.Fatalf("Get expected 2 tags, got %v", got.Tags)
	}
	fmt.Println("  ✓ Get works")

	if err := snaps.Put(ctx, site.ID, []byte("preview")); err != nil {
		log.Fatalf("Put snapshot failed: %v", err)
	}
	if err := marks.RemoveBookmark(ctx, site.ID); err != nil {
		log.Fatalf("RemoveBookmark failed: %v", err)
	}
	if has, _ := snaps.Has(ctx, site.ID); has {
		log.Fatal("snapshot survived RemoveBookmark")
	}
	tags, err := marks.ListTags(ctx)
	if err != nil {
		log.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 0 {
		log.Fatalf("ListTags expected 0 tags after removal, got %d", len(tags))
	}
	fmt.Println("  ✓ RemoveBookmark cascades")

	prefs := settings.New(s, nil)
	if _, err := prefs.Load(ctx); err != nil {
		log.Fatalf("Load settings failed: %v", err)
	}
	if _, err := prefs.Set(ctx, "linkDistance", 80); err != nil {
		log.Fatalf("Set setting failed: %v", err)
	}
	reloaded := settings.New(s, nil)
	st, err := reloaded.Load(ctx)
	if err != nil {
		log.Fatalf("Reload settings failed: %v", err)
	}
	if st.LinkDistance != 80 {
		log.Fatalf("LinkDistance expected 80, got %v", st.LinkDistance)
	}
	fmt.Println("  ✓ Settings persist")
}
