// Package inspector implements the engine-independent inspector: one
// Adapter type serves every engine, built from a Connector, the engine's
// Dialect, its type Normalizer and its catalog Reader.
//
// Failure policy: Connect, GetTables and ExecuteTransaction return errors;
// ExecuteQuery and TestConnection always return a structured result.
package inspector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/dialect"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/pool"
	"github.com/koustreak/dbinspect/internal/schema"
	"github.com/koustreak/dbinspect/internal/typemap"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. The adapter tags it with its engine.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithDefaultSchema overrides the engine's default schema for targets that
// do not set Config.Schema.
func WithDefaultSchema(name string) Option {
	return func(a *Adapter) { a.defaultSchema = &name }
}

// WithShutdownTimeout bounds how long Disconnect and Close wait for
// borrowed sessions.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.shutdownTimeout = d }
}

// Adapter is the inspector for one engine.
type Adapter struct {
	engine    database.Engine
	connector database.Connector
	dialect   *dialect.Dialect
	types     *typemap.Normalizer
	reader    *schema.Reader
	base      *logger.Logger // engine-tagged, handed to pools and the reader
	log       *logger.Logger

	defaultSchema   *string
	shutdownTimeout time.Duration

	mu     sync.Mutex
	pools  map[string]*poolEntry
	closed bool
}

// poolEntry is a pool shared by every Connection to the same target.
type poolEntry struct {
	key   string
	label string
	pool  *pool.Pool
	refs  int
}

// New builds the adapter for engine on top of connector.
func New(engine database.Engine, connector database.Connector, opts ...Option) (*Adapter, error) {
	if connector == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "connector is required")
	}
	d, err := dialect.For(engine)
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		engine:          engine,
		connector:       connector,
		dialect:         d,
		types:           typemap.For(engine),
		shutdownTimeout: 30 * time.Second,
		pools:           make(map[string]*poolEntry),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.L()
	}
	a.base = a.log.With().Str("engine", string(engine)).Logger()
	a.log = a.base.Component("inspector")

	a.reader, err = schema.NewReader(engine, a.base)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Engine reports the engine the adapter serves.
func (a *Adapter) Engine() database.Engine { return a.engine }

// Dialect returns the engine's SQL conventions.
func (a *Adapter) Dialect() *dialect.Dialect { return a.dialect }

// Connect validates cfg and establishes a connection, proving the target is
// reachable with one validated session. Every failure to reach the target
// is ErrKindConnectionFailed.
func (a *Adapter) Connect(ctx context.Context, cfg *database.Config) (*Connection, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Connection{cfg: cfg.WithDefaults(), state: StateCreated}
	if c.cfg.Engine != a.engine {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("%s adapter cannot connect to a %s target", a.engine, c.cfg.Engine))
	}
	c.schema = a.schemaFor(&c.cfg)
	c.setState(StateConnecting)

	entry, err := a.retain(&c.cfg)
	if err != nil {
		c.setState(StateFailed)
		return nil, err
	}

	lease, err := entry.pool.Acquire(ctx)
	if err != nil {
		c.setState(StateFailed)
		a.releaseEntry(entry)
		a.log.WarnWith("connect failed", err, c.cfg.LogFields())
		return nil, errs.Wrap(errs.ErrKindConnectionFailed,
			fmt.Sprintf("connect to %s at %s:%d", a.engine, c.cfg.Host, c.cfg.Port), err)
	}
	lease.Release()

	c.mu.Lock()
	c.entry = entry
	c.state = StateConnected
	c.mu.Unlock()

	a.log.InfoWith("connected", c.cfg.LogFields())
	return c, nil
}

// Disconnect closes the connection. Calling it again is a no-op. The pool
// behind the connection is drained once its last connection is gone.
func (a *Adapter) Disconnect(ctx context.Context, c *Connection) error {
	if c == nil {
		return nil
	}
	entry := c.detach()
	if entry == nil {
		return nil
	}
	return a.releaseEntryCtx(ctx, entry)
}

// TestConnection opens a short-lived session outside any pool, probes the
// server version and closes the session on every path. It never returns an
// error; failures are reported in the result.
func (a *Adapter) TestConnection(ctx context.Context, cfg *database.Config) database.ConnectionTestResult {
	fail := func(err error) database.ConnectionTestResult {
		return database.ConnectionTestResult{Success: false, Error: err.Error()}
	}
	if cfg == nil {
		return fail(errs.New(errs.ErrKindInvalidInput, "config is required"))
	}
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	c := cfg.WithDefaults()

	ctx, cancel := context.WithTimeout(ctx, c.ConnectTimeout)
	defer cancel()

	s, err := a.connector.Open(ctx, &c)
	if err != nil {
		return fail(errs.Wrap(errs.ErrKindConnectionFailed,
			fmt.Sprintf("connect to %s at %s:%d", a.engine, c.Host, c.Port), err))
	}
	defer func() {
		if cerr := s.Close(context.Background()); cerr != nil {
			a.log.WarnWith("closing test session failed", cerr, nil)
		}
	}()

	rs, err := s.Exec(ctx, a.dialect.VersionQuery())
	if err != nil {
		return fail(errs.Annotate(errs.ErrKindQueryFailed, "probe server version", err))
	}
	return database.ConnectionTestResult{Success: true, Version: firstCell(rs)}
}

// Close drains every pool and refuses further connections. Connections
// still open are moved to Disconnected on their next call.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	entries := make([]*poolEntry, 0, len(a.pools))
	for _, e := range a.pools {
		entries = append(entries, e)
	}
	clear(a.pools)
	a.mu.Unlock()

	var first error
	for _, e := range entries {
		if err := e.pool.Drain(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PoolStats snapshots every pool, keyed by pool label.
func (a *Adapter) PoolStats() map[string]pool.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]pool.Stats, len(a.pools))
	for _, e := range a.pools {
		out[e.label] = e.pool.Stats()
	}
	return out
}

func (a *Adapter) schemaFor(cfg *database.Config) string {
	if cfg.Schema == "" && a.defaultSchema != nil {
		return *a.defaultSchema
	}
	return a.dialect.DefaultSchema(cfg)
}

// retain returns the pool for cfg, creating it on first use.
func (a *Adapter) retain(cfg *database.Config) (*poolEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errs.New(errs.ErrKindPoolClosed, fmt.Sprintf("%s adapter is closed", a.engine))
	}
	key := cfg.Key()
	if e, ok := a.pools[key]; ok {
		e.refs++
		return e, nil
	}

	target := *cfg
	opts := pool.OptionsFrom(&target)
	opts.ShutdownTimeout = a.shutdownTimeout
	opts.Logger = a.base
	opts.Validate = a.validate
	p := pool.New(func(ctx context.Context) (database.Session, error) {
		ctx, cancel := context.WithTimeout(ctx, target.ConnectTimeout)
		defer cancel()
		return a.connector.Open(ctx, &target)
	}, opts)

	e := &poolEntry{
		key:   key,
		label: fmt.Sprintf("%s/%s", a.engine, key),
		pool:  p,
		refs:  1,
	}
	a.pools[key] = e
	return e, nil
}

func (a *Adapter) validate(ctx context.Context, s database.Session) error {
	_, err := s.Exec(ctx, a.dialect.ValidationQuery())
	return err
}

func (a *Adapter) releaseEntry(e *poolEntry) {
	if err := a.releaseEntryCtx(context.Background(), e); err != nil {
		a.log.WarnWith("draining pool failed", err, map[string]any{"pool": e.label})
	}
}

func (a *Adapter) releaseEntryCtx(ctx context.Context, e *poolEntry) error {
	a.mu.Lock()
	e.refs--
	last := e.refs <= 0
	if last && a.pools[e.key] == e {
		delete(a.pools, e.key)
	}
	a.mu.Unlock()
	if !last {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()
	return e.pool.Drain(ctx)
}
