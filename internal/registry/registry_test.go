package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/fakedb"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/inspector"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/pool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(engine database.Engine, db string) *database.Config {
	return &database.Config{
		Engine:         engine,
		Host:           "db.local",
		Database:       db,
		User:           "app",
		AcquireTimeout: time.Second,
	}
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(WithLogger(logger.Nop()), WithAdapterOptions(inspector.WithShutdownTimeout(time.Second)))
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Register(database.EngineMySQL, fakedb.New()))
	require.NoError(t, r.Register(database.EnginePostgres, fakedb.New()))

	err := r.Register(database.EngineMySQL, fakedb.New())
	assert.True(t, errs.IsInvalidInput(err))

	err = r.Register("dbase", fakedb.New())
	assert.True(t, errs.IsInvalidInput(err))

	assert.Equal(t, []database.Engine{database.EnginePostgres, database.EngineMySQL}, r.Engines())
}

func TestAdapter_ResolvesAliases(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Register(database.EnginePostgres, fakedb.New()))

	for _, tag := range []string{"postgresql", "postgres", "PG"} {
		a, err := r.Adapter(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, database.EnginePostgres, a.Engine())
	}

	_, err := r.Adapter("oracle")
	assert.True(t, errs.IsNotFound(err))

	_, err = r.Adapter("dbase")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestNewDefault(t *testing.T) {
	r, err := NewDefault(WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	assert.Equal(t, database.Engines, r.Engines())
}

func TestConnectionLifecycle(t *testing.T) {
	r := newRegistry(t)
	db := fakedb.New()
	require.NoError(t, r.Register(database.EnginePostgres, db))
	ctx := context.Background()

	id, err := r.Connect(ctx, target(database.EnginePostgres, "shop"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{id}, r.IDs())

	a, c, err := r.Connection(id)
	require.NoError(t, err)
	assert.Equal(t, database.EnginePostgres, a.Engine())
	assert.True(t, c.Connected())

	require.NoError(t, r.Disconnect(ctx, id))
	assert.False(t, c.Connected())
	assert.Empty(t, r.IDs())

	_, _, err = r.Connection(id)
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(r.Disconnect(ctx, id)))
}

func TestConnect_Errors(t *testing.T) {
	r := newRegistry(t)
	db := fakedb.New()
	require.NoError(t, r.Register(database.EnginePostgres, db))
	ctx := context.Background()

	_, err := r.Connect(ctx, nil)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = r.Connect(ctx, target(database.EngineMySQL, "shop"))
	assert.True(t, errs.IsNotFound(err))

	db.SetOpenError(errs.New(errs.ErrKindConnectionFailed, "refused"))
	_, err = r.Connect(ctx, target(database.EnginePostgres, "shop"))
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Empty(t, r.IDs())
}

func TestTestConnection(t *testing.T) {
	r := newRegistry(t)
	db := fakedb.New().On("version()", fakedb.Rows([]string{"version"}, []any{"PostgreSQL 16.2"}))
	require.NoError(t, r.Register(database.EnginePostgres, db))
	ctx := context.Background()

	res := r.TestConnection(ctx, target(database.EnginePostgres, "shop"))
	assert.True(t, res.Success)
	assert.Equal(t, "PostgreSQL 16.2", res.Version)

	res = r.TestConnection(ctx, target(database.EngineMySQL, "shop"))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no adapter registered")

	res = r.TestConnection(ctx, nil)
	assert.False(t, res.Success)
}

func TestPoolStats_FeedsCollector(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Register(database.EnginePostgres, fakedb.New()))
	require.NoError(t, r.Register(database.EngineMySQL, fakedb.New()))
	ctx := context.Background()

	_, err := r.Connect(ctx, target(database.EnginePostgres, "shop"))
	require.NoError(t, err)
	_, err = r.Connect(ctx, target(database.EngineMySQL, "shop"))
	require.NoError(t, err)

	stats := r.PoolStats()
	require.Len(t, stats, 2)
	var prefixes []string
	for label, st := range stats {
		prefixes = append(prefixes, label[:strings.Index(label, "/")])
		assert.Equal(t, 1, st.Total)
		assert.Equal(t, 1, st.Available)
	}
	assert.ElementsMatch(t, []string{"postgresql", "mysql"}, prefixes)

	var src pool.StatsSource = r
	assert.Equal(t, 16, testutil.CollectAndCount(pool.NewCollector(src)))
}

func TestClose(t *testing.T) {
	r := New(WithLogger(logger.Nop()))
	db := fakedb.New()
	require.NoError(t, r.Register(database.EnginePostgres, db))
	ctx := context.Background()

	_, err := r.Connect(ctx, target(database.EnginePostgres, "shop"))
	require.NoError(t, err)

	require.NoError(t, r.Close(ctx))
	require.NoError(t, r.Close(ctx))
	assert.Empty(t, r.IDs())
	assert.Equal(t, db.Opens(), db.Closes())

	_, err = r.Connect(ctx, target(database.EnginePostgres, "shop"))
	assert.Error(t, err)
	assert.True(t, errs.IsPoolClosed(r.Register(database.EngineMySQL, fakedb.New())))

	res := r.TestConnection(ctx, target(database.EngineMySQL, "shop"))
	assert.False(t, res.Success)
}
