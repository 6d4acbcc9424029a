package store

import (
	"context"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Store Factory for Testing All Implementations
// =============================================================================

// storeFactory creates a store for testing.
// MemStore, SQLiteStore and FSStore share the same contract suite.
type storeFactory func() (Storer, error)

func memStoreFactory() (Storer, error) {
	return NewMemStore(), nil
}

func sqliteStoreFactory() (Storer, error) {
	return NewSQLiteStore()
}

func fsStoreFactory() (Storer, error) {
	fsys, err := mem.NewFS()
	if err != nil {
		return nil, err
	}
	return NewFSStore(fsys, "kv")
}

// runTestsForAllStores runs a test function against every store implementation.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store Storer)) {
	factories := map[string]storeFactory{
		"MemStore":    memStoreFactory,
		"SQLiteStore": sqliteStoreFactory,
		"FSStore":     fsStoreFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			store, err := factory()
			require.NoError(t, err, "Failed to create store")
			defer store.Close()
			testFn(t, store)
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	runTestsForAllStores(t, "GetMissing", func(t *testing.T, store Storer) {
		value, found, err := store.Get(context.Background(), "webgraph_data")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, value)
	})
}

func TestSetGetOverwrite(t *testing.T) {
	runTestsForAllStores(t, "SetGetOverwrite", func(t *testing.T, store Storer) {
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "webgraph_data", []byte(`{"spaces":[]}`)))
		value, found, err := store.Get(ctx, "webgraph_data")
		require.NoError(t, err)
		require.True(t, found)
		assert.JSONEq(t, `{"spaces":[]}`, string(value))

		require.NoError(t, store.Set(ctx, "webgraph_data", []byte(`{"spaces":[{"id":"space1"}]}`)))
		value, _, err = store.Get(ctx, "webgraph_data")
		require.NoError(t, err)
		assert.JSONEq(t, `{"spaces":[{"id":"space1"}]}`, string(value))
	})
}

func TestDeleteIsIdempotent(t *testing.T) {
	runTestsForAllStores(t, "Delete", func(t *testing.T, store Storer) {
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "a", []byte("1")))
		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx, "a"))

		_, found, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestKeysByPrefix(t *testing.T) {
	runTestsForAllStores(t, "Keys", func(t *testing.T, store Storer) {
		ctx := context.Background()

		for _, key := range []string{"snap/site2", "snap/site1", "webgraph_settings", "snap/a b"} {
			require.NoError(t, store.Set(ctx, key, []byte("x")))
		}

		keys, err := store.Keys(ctx, "snap/")
		require.NoError(t, err)
		assert.Equal(t, []string{"snap/a b", "snap/site1", "snap/site2"}, keys)

		all, err := store.Keys(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})
}

func TestKeysPrefixBoundaries(t *testing.T) {
	runTestsForAllStores(t, "KeysBoundaries", func(t *testing.T, store Storer) {
		ctx := context.Background()

		// "snap0" sorts right after every "snap/..." key; % and _ are LIKE wildcards
		for _, key := range []string{"snap/x", "snap0", "snap%", "snap_1", "snapshot", "sna"} {
			require.NoError(t, store.Set(ctx, key, []byte("x")))
		}

		keys, err := store.Keys(ctx, "snap/")
		require.NoError(t, err)
		assert.Equal(t, []string{"snap/x"}, keys)

		keys, err = store.Keys(ctx, "snap_")
		require.NoError(t, err)
		assert.Equal(t, []string{"snap_1"}, keys)

		keys, err = store.Keys(ctx, "snap")
		require.NoError(t, err)
		assert.Equal(t, []string{"snap%", "snap/x", "snap0", "snap_1", "snapshot"}, keys)
	})
}

func TestPrefixEnd(t *testing.T) {
	end, ok := prefixEnd("snap/")
	assert.True(t, ok)
	assert.Equal(t, "snap0", end)

	end, ok = prefixEnd("a\xff\xff")
	assert.True(t, ok)
	assert.Equal(t, "b", end)

	_, ok = prefixEnd("")
	assert.False(t, ok)
	_, ok = prefixEnd("\xff")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	runTestsForAllStores(t, "JSON", func(t *testing.T, store Storer) {
		ctx := context.Background()
		type record struct {
			NodeRadius float64 `json:"nodeRadius"`
		}

		got, found, err := GetJSON[record](ctx, store, "webgraph_settings")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)

		require.NoError(t, SetJSON(ctx, store, "webgraph_settings", record{NodeRadius: 12}))
		got, found, err = GetJSON[record](ctx, store, "webgraph_settings")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 12.0, got.NodeRadius)
	})
}

func TestMemStoreCopiesValues(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'

	got, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestCancelledContext(t *testing.T) {
	s := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Set(ctx, "k", []byte("v")))
	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
}
