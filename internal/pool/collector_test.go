package pool

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource map[string]Stats

func (s staticSource) PoolStats() map[string]Stats { return s }

func TestCollector(t *testing.T) {
	c := NewCollector(staticSource{
		"postgresql/orders": {Total: 3, Available: 1, Borrowed: 2, Max: 10, Acquired: 7, Discarded: 1},
	})

	expected := `
# HELP dbinspect_pool_connections Sessions held by the pool, by state.
# TYPE dbinspect_pool_connections gauge
dbinspect_pool_connections{pool="postgresql/orders",state="available"} 1
dbinspect_pool_connections{pool="postgresql/orders",state="borrowed"} 2
dbinspect_pool_connections{pool="postgresql/orders",state="pending"} 0
dbinspect_pool_connections{pool="postgresql/orders",state="total"} 3
# HELP dbinspect_pool_max_connections Configured maximum pool size.
# TYPE dbinspect_pool_max_connections gauge
dbinspect_pool_max_connections{pool="postgresql/orders"} 10
# HELP dbinspect_pool_acquired_total Successful session acquisitions.
# TYPE dbinspect_pool_acquired_total counter
dbinspect_pool_acquired_total{pool="postgresql/orders"} 7
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"dbinspect_pool_connections", "dbinspect_pool_max_connections", "dbinspect_pool_acquired_total")
	require.NoError(t, err)

	assert.Equal(t, 8, testutil.CollectAndCount(c))
}

func TestCollector_EmptySource(t *testing.T) {
	assert.Equal(t, 0, testutil.CollectAndCount(NewCollector(staticSource{})))
}
