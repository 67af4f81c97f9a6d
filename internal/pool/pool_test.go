package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/fakedb"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, db *fakedb.Connector, opts Options) *Pool {
	t.Helper()
	cfg := &database.Config{Engine: database.EnginePostgres, Host: "localhost"}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	p := New(func(ctx context.Context) (database.Session, error) {
		return db.Open(ctx, cfg)
	}, opts)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func validateSelect1(ctx context.Context, s database.Session) error {
	_, err := s.Exec(ctx, "SELECT 1")
	return err
}

func TestPool_ReusesReleasedSession(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 2})

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l1.Release()

	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer l2.Release()

	assert.Equal(t, 1, db.Opens())
	st := p.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Borrowed)
	assert.Equal(t, 0, st.Available)
	assert.Equal(t, uint64(2), st.Acquired)
}

func TestPool_ExhaustedAfterAcquireTimeout(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 1, AcquireTimeout: 30 * time.Millisecond})

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer l1.Release()

	_, err = p.Acquire(context.Background())
	assert.True(t, errs.IsPoolExhausted(err), "got %v", err)
	assert.Equal(t, uint64(1), p.Stats().Exhausted)
	assert.Equal(t, 1, p.Stats().Total)
}

func TestPool_CallerCancellationIsTimeout(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 1, AcquireTimeout: time.Second})

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer l1.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.True(t, errs.IsTimeout(err), "got %v", err)
}

func TestPool_WaiterGetsReleasedSlot(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 1, AcquireTimeout: time.Second})

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		l2, err := p.Acquire(context.Background())
		if err == nil {
			l2.Release()
		}
		got <- err
	}()

	require.Eventually(t, func() bool { return p.Stats().Pending == 1 }, time.Second, 5*time.Millisecond)
	l1.Release()

	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired")
	}
	assert.Equal(t, 1, db.Opens())
}

func TestPool_ValidationFailureIsReplacedTransparently(t *testing.T) {
	db := fakedb.New().FailTimes("SELECT 1", errors.New("server closed the connection"), 1)
	p := newTestPool(t, db, Options{Max: 2, Validate: validateSelect1})

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer l.Release()

	assert.Equal(t, 2, db.Opens())
	assert.Equal(t, 1, db.Closes())
	st := p.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, uint64(1), st.Discarded)
}

func TestPool_StaleIdleSessionsAreAllReplaced(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 5, Validate: validateSelect1})
	ctx := context.Background()

	l1, err := p.Acquire(ctx)
	require.NoError(t, err)
	l2, err := p.Acquire(ctx)
	require.NoError(t, err)
	l1.Release()
	l2.Release()
	require.Equal(t, 2, p.Stats().Available)

	// both idle sessions died with the server; a new one validates fine
	db.FailTimes("SELECT 1", errors.New("server restarted"), 2)

	l, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer l.Release()

	assert.Equal(t, 3, db.Opens())
	assert.Equal(t, 2, db.Closes())
	st := p.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, uint64(2), st.Discarded)
}

func TestPool_ValidationFailureSurfacesWhenReplacementFails(t *testing.T) {
	db := fakedb.New().Fail("SELECT 1", errors.New("server closed the connection"))
	p := newTestPool(t, db, Options{Max: 2, Validate: validateSelect1})

	_, err := p.Acquire(context.Background())
	assert.True(t, errs.IsConnectionFailed(err), "got %v", err)
	assert.Equal(t, 0, p.Stats().Total)
	assert.Equal(t, db.Opens(), db.Closes())
}

func TestPool_OpenFailureReleasesSlot(t *testing.T) {
	db := fakedb.New()
	db.SetOpenError(errors.New("dial tcp: connection refused"))
	p := newTestPool(t, db, Options{Max: 1, AcquireTimeout: 50 * time.Millisecond})

	_, err := p.Acquire(context.Background())
	assert.True(t, errs.IsConnectionFailed(err), "got %v", err)

	db.SetOpenError(nil)
	l, err := p.Acquire(context.Background())
	require.NoError(t, err, "the failed open must not leak its slot")
	l.Release()
}

func TestPool_SuspectSessionIsDiscarded(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 2})

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l.MarkSuspect()
	l.Release()
	l.Release()

	assert.Equal(t, 1, db.Closes())
	assert.Equal(t, 0, p.Stats().Total)

	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l2.Release()
	assert.Equal(t, 2, db.Opens())
}

func TestPool_InvariantUnderConcurrency(t *testing.T) {
	db := fakedb.New()
	const limit = 3
	p := newTestPool(t, db, Options{Max: limit, AcquireTimeout: 5 * time.Second})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var violations []Stats

	check := func() {
		st := p.Stats()
		if st.Borrowed+st.Available != st.Total || st.Total > limit || st.Pending < 0 {
			mu.Lock()
			violations = append(violations, st)
			mu.Unlock()
		}
	}

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				l, err := p.Acquire(context.Background())
				if err != nil {
					continue
				}
				check()
				if i%7 == 0 {
					l.MarkSuspect()
				}
				l.Release()
				check()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, violations)
	st := p.Stats()
	assert.Equal(t, 0, st.Borrowed)
	assert.LessOrEqual(t, st.Total, limit)
}

func TestPool_DrainWaitsForBorrowed(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 2})

	idle, err := p.Acquire(context.Background())
	require.NoError(t, err)
	busy, err := p.Acquire(context.Background())
	require.NoError(t, err)
	idle.Release()

	done := make(chan error, 1)
	go func() { done <- p.Drain(context.Background()) }()

	require.Eventually(t, func() bool {
		l, err := p.Acquire(context.Background())
		if err == nil {
			l.Release()
			return false
		}
		return errs.IsPoolClosed(err)
	}, time.Second, 5*time.Millisecond)

	busy.Release()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("drain did not finish")
	}
	assert.Equal(t, 2, db.Closes())
	assert.Equal(t, 0, p.Stats().Total)
}

func TestPool_DrainTimeoutClosesLateReleases(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 1})

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.Drain(ctx)
	assert.True(t, errs.IsTimeout(err), "got %v", err)

	l.Release()
	assert.Equal(t, 1, db.Closes())
	assert.Equal(t, 0, p.Stats().Total)
}

func TestPool_ReaperKeepsMinIdle(t *testing.T) {
	db := fakedb.New()
	p := newTestPool(t, db, Options{Max: 3, MinIdle: 1, IdleTimeout: 20 * time.Millisecond})

	var leases []*Lease
	for i := 0; i < 3; i++ {
		l, err := p.Acquire(context.Background())
		require.NoError(t, err)
		leases = append(leases, l)
	}
	for _, l := range leases {
		l.Release()
	}
	require.Equal(t, 3, p.Stats().Available)

	require.Eventually(t, func() bool { return p.Stats().Total == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, db.Closes())
}

func TestPool_ReaperWithoutMinIdle(t *testing.T) {
	db := fakedb.New()
	opts := OptionsFrom(&database.Config{Engine: database.EnginePostgres, ConnectionLimit: 2, MinIdle: database.NoMinIdle})
	opts.IdleTimeout = 20 * time.Millisecond
	p := newTestPool(t, db, opts)

	a, err := p.Acquire(context.Background())
	require.NoError(t, err)
	b, err := p.Acquire(context.Background())
	require.NoError(t, err)
	a.Release()
	b.Release()
	require.Equal(t, 2, p.Stats().Available)

	require.Eventually(t, func() bool { return p.Stats().Total == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, db.Closes())
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(&database.Config{Engine: database.EnginePostgres, ConnectionLimit: 4, AcquireTimeout: time.Second})
	assert.Equal(t, 4, opts.Max)
	assert.Equal(t, 2, opts.MinIdle)
	assert.Equal(t, time.Second, opts.AcquireTimeout)
	assert.Equal(t, database.DefaultIdleTimeout, opts.IdleTimeout)
}
