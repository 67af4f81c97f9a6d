// Package pool keeps a bounded set of live sessions for one connection target.
//
// Acquire waits cooperatively for a free slot (bounded by the acquire
// timeout), validates the session it hands out and transparently replaces a
// session that fails validation. All bookkeeping happens under one mutex per
// pool; two pools never share state.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
	"golang.org/x/sync/semaphore"
)

// OpenFunc opens one native session.
type OpenFunc func(ctx context.Context) (database.Session, error)

// ValidateFunc runs a trivial round trip on a session.
type ValidateFunc func(ctx context.Context, s database.Session) error

// Options tunes a Pool. Zero values fall back to the database package defaults.
type Options struct {
	Max             int
	MinIdle         int
	IdleTimeout     time.Duration
	AcquireTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Validate is run on every session before it is handed out.
	Validate ValidateFunc
	Logger   *logger.Logger
}

// OptionsFrom derives pool options from a target configuration.
func OptionsFrom(cfg *database.Config) Options {
	c := cfg.WithDefaults()
	return Options{
		Max:            c.ConnectionLimit,
		MinIdle:        c.MinIdle,
		IdleTimeout:    c.IdleTimeout,
		AcquireTimeout: c.AcquireTimeout,
	}
}

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	Total     int
	Available int
	Borrowed  int
	Pending   int
	Max       int

	Acquired  uint64 // successful acquisitions
	Exhausted uint64 // acquisitions that hit the acquire timeout
	Discarded uint64 // sessions dropped after failed validation or a suspect release
}

type idleSession struct {
	s        database.Session
	lastUsed time.Time
}

// Pool is a bounded, reusable set of sessions to one target.
type Pool struct {
	open OpenFunc
	opts Options
	log  *logger.Logger
	sem  *semaphore.Weighted
	now  func() time.Time

	mu       sync.Mutex
	idle     []idleSession // stack; the most recently used session is last
	total    int
	pending  int
	closed   bool
	released chan struct{}
	stats    Stats

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a pool. No session is opened until the first Acquire.
func New(open OpenFunc, opts Options) *Pool {
	if opts.Max <= 0 {
		opts.Max = database.DefaultConnectionLimit
	}
	if opts.MinIdle < 0 {
		opts.MinIdle = 0
	}
	if opts.MinIdle > opts.Max {
		opts.MinIdle = opts.Max
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = database.DefaultIdleTimeout
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = database.DefaultAcquireTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.L()
	}

	p := &Pool{
		open:     open,
		opts:     opts,
		log:      log.Component("pool"),
		sem:      semaphore.NewWeighted(int64(opts.Max)),
		now:      time.Now,
		released: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.reap()
	return p
}

// Acquire borrows a validated session. It fails with ErrKindPoolExhausted
// when no slot frees up within the acquire timeout, ErrKindTimeout when ctx
// ends first, and ErrKindPoolClosed once the pool is draining.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errs.New(errs.ErrKindPoolClosed, "pool is closed")
	}
	p.pending++
	p.mu.Unlock()

	actx, cancel := context.WithTimeout(ctx, p.opts.AcquireTimeout)
	err := p.sem.Acquire(actx, 1)
	cancel()

	p.mu.Lock()
	p.pending--
	if err != nil {
		if ctx.Err() != nil {
			p.mu.Unlock()
			return nil, errs.Wrap(errs.ErrKindTimeout, "acquire cancelled", ctx.Err())
		}
		p.stats.Exhausted++
		p.mu.Unlock()
		return nil, errs.Wrap(errs.ErrKindPoolExhausted,
			"no connection available within "+p.opts.AcquireTimeout.String(), err)
	}
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, errs.New(errs.ErrKindPoolClosed, "pool is closed")
	}
	p.mu.Unlock()

	s, err := p.checkout(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	p.mu.Lock()
	p.stats.Acquired++
	p.mu.Unlock()
	return &Lease{pool: p, session: s}, nil
}

// checkout pops an idle session or opens a new one, then validates it.
// Idle sessions failing validation are discarded one after another until
// the idle set is empty. A freshly opened session failing validation is
// replaced once; only the failure of that replacement reaches the caller.
func (p *Pool) checkout(ctx context.Context) (database.Session, error) {
	freshFailures := 0
	for {
		s, fresh, err := p.take(ctx)
		if err != nil {
			return nil, err
		}
		if p.opts.Validate == nil {
			return s, nil
		}
		verr := p.opts.Validate(ctx, s)
		if verr == nil {
			return s, nil
		}
		p.log.WarnWith("session failed validation, replacing", verr, map[string]any{"fresh": fresh})
		p.discard(s)
		if fresh {
			freshFailures++
			if freshFailures > 1 {
				return nil, errs.Annotate(errs.ErrKindConnectionFailed, "validate session", verr)
			}
		}
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrKindTimeout, "acquire cancelled", ctx.Err())
		}
	}
}

// take returns an idle session, or opens a new one when none is idle.
// The caller holds a semaphore slot, so total never exceeds Max.
func (p *Pool) take(ctx context.Context) (database.Session, bool, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		is := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return is.s, false, nil
	}
	p.total++
	p.mu.Unlock()

	s, err := p.open(ctx)
	if err != nil {
		p.mu.Lock()
		p.total--
		p.mu.Unlock()
		return nil, true, errs.Annotate(errs.ErrKindConnectionFailed, "open session", err)
	}
	return s, true, nil
}

// discard closes a session that will not return to the idle set.
func (p *Pool) discard(s database.Session) {
	p.mu.Lock()
	p.total--
	p.stats.Discarded++
	p.mu.Unlock()
	p.closeSession(s)
}

func (p *Pool) closeSession(s database.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		p.log.WarnWith("close session", err, nil)
	}
}

func (p *Pool) release(s database.Session, suspect bool) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.total--
		p.mu.Unlock()
		p.closeSession(s)
	case suspect:
		p.total--
		p.stats.Discarded++
		p.mu.Unlock()
		p.closeSession(s)
	default:
		p.idle = append(p.idle, idleSession{s: s, lastUsed: p.now()})
		p.mu.Unlock()
	}
	p.sem.Release(1)

	select {
	case p.released <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot. Borrowed is always derived as Total-Available.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.stats
	st.Total = p.total
	st.Available = len(p.idle)
	st.Borrowed = st.Total - st.Available
	st.Pending = p.pending
	st.Max = p.opts.Max
	return st
}

// Drain stops new acquisitions, waits for borrowed sessions to come back
// (bounded by ctx) and closes every idle session. Sessions still borrowed
// when ctx ends are closed as they are released.
func (p *Pool) Drain(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()

	var waitErr error
	for {
		p.mu.Lock()
		borrowed := p.total - len(p.idle)
		p.mu.Unlock()
		if borrowed == 0 {
			break
		}
		select {
		case <-p.released:
			continue
		case <-ctx.Done():
			waitErr = errs.Wrap(errs.ErrKindTimeout, "drain: borrowed sessions still outstanding", ctx.Err())
		}
		break
	}

	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.total -= len(idle)
	p.mu.Unlock()

	for _, is := range idle {
		p.closeSession(is.s)
	}
	p.log.InfoWith("pool drained", map[string]any{"closed": len(idle)})
	return waitErr
}

// Close drains the pool with the configured shutdown timeout.
func (p *Pool) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.ShutdownTimeout)
	defer cancel()
	return p.Drain(ctx)
}

// reap closes sessions idle for longer than IdleTimeout, keeping MinIdle.
func (p *Pool) reap() {
	defer p.wg.Done()

	interval := p.opts.IdleTimeout / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.reapOnce()
		}
	}
}

func (p *Pool) reapOnce() {
	cutoff := p.now().Add(-p.opts.IdleTimeout)

	p.mu.Lock()
	var expired []database.Session
	// idle[0] is the least recently used session
	for len(p.idle) > p.opts.MinIdle && p.idle[0].lastUsed.Before(cutoff) {
		expired = append(expired, p.idle[0].s)
		p.idle = p.idle[1:]
		p.total--
	}
	p.mu.Unlock()

	for _, s := range expired {
		p.closeSession(s)
	}
	if len(expired) > 0 {
		p.log.DebugWith("reaped idle sessions", map[string]any{"count": len(expired)})
	}
}
