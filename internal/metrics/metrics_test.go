package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector("webgraph")

	c.ObserveTick(time.Millisecond)
	c.ObserveTick(2 * time.Millisecond)
	c.ObserveRestart()
	c.ObserveStoreOp("add_bookmark", nil)
	c.ObserveStoreOp("add_bookmark", errors.New("boom"))
	c.ObserveHTTP("GET", "/api/v1/bookmarks", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Restarts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("add_bookmark", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("add_bookmark", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/v1/bookmarks", "200")))

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("webgraph")
	b := NewCollector("webgraph")
	a.ObserveRestart()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Restarts))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveTick(time.Second)
		c.ObserveRestart()
		c.ObserveStoreOp("x", nil)
		c.ObserveHTTP("GET", "/", 200)
		_ = c.Registry()
	})
}
