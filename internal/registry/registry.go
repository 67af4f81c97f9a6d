// Package registry maps engine tags to inspector adapters and hands out
// opaque ids for live connections.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/mysql"
	"github.com/koustreak/dbinspect/internal/database/postgres"
	"github.com/koustreak/dbinspect/internal/database/sqldb"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/inspector"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/pool"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to every adapter.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.base = l }
}

// WithAdapterOptions applies opts to every adapter the registry builds.
func WithAdapterOptions(opts ...inspector.Option) Option {
	return func(r *Registry) { r.adapterOpts = append(r.adapterOpts, opts...) }
}

// Registry manages the registration and retrieval of inspector adapters
// and the connections opened through them.
type Registry struct {
	base        *logger.Logger
	log         *logger.Logger
	adapterOpts []inspector.Option

	mu       sync.RWMutex
	adapters map[database.Engine]*inspector.Adapter
	conns    map[string]*inspector.Connection
	closed   bool
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		adapters: make(map[database.Engine]*inspector.Adapter),
		conns:    make(map[string]*inspector.Connection),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.base == nil {
		r.base = logger.L()
	}
	r.log = r.base.Component("registry")
	return r
}

// NewDefault returns a registry with every engine bound to its built-in
// connector: pgx for PostgreSQL, go-sql-driver for MySQL and database/sql
// for the rest.
func NewDefault(opts ...Option) (*Registry, error) {
	r := New(opts...)
	for _, e := range database.Engines {
		var c database.Connector
		switch e {
		case database.EnginePostgres:
			c = postgres.New()
		case database.EngineMySQL:
			c = mysql.New()
		default:
			c = sqldb.New(e)
		}
		if err := r.Register(e, c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register builds the adapter for engine on top of connector. An engine can
// be registered once.
func (r *Registry) Register(engine database.Engine, connector database.Connector) error {
	opts := append([]inspector.Option{inspector.WithLogger(r.base)}, r.adapterOpts...)
	a, err := inspector.New(engine, connector, opts...)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errs.New(errs.ErrKindPoolClosed, "registry is closed")
	}
	if _, ok := r.adapters[engine]; ok {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("engine %s is already registered", engine))
	}
	r.adapters[engine] = a
	return nil
}

// Adapter returns the adapter for an engine tag or one of its aliases.
func (r *Registry) Adapter(tag string) (*inspector.Adapter, error) {
	engine, err := database.ParseEngine(tag)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[engine]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("no adapter registered for %s", engine))
	}
	return a, nil
}

// Engines lists the registered engines in the order of database.Engines.
func (r *Registry) Engines() []database.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]database.Engine, 0, len(r.adapters))
	for _, e := range database.Engines {
		if _, ok := r.adapters[e]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Connect opens a connection through the adapter for cfg.Engine and returns
// its id.
func (r *Registry) Connect(ctx context.Context, cfg *database.Config) (string, error) {
	if cfg == nil {
		return "", errs.New(errs.ErrKindInvalidInput, "config is required")
	}
	a, err := r.Adapter(string(cfg.Engine))
	if err != nil {
		return "", err
	}
	c, err := a.Connect(ctx, cfg)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = a.Disconnect(ctx, c)
		return "", errs.New(errs.ErrKindPoolClosed, "registry is closed")
	}
	r.conns[id] = c
	r.mu.Unlock()

	r.log.DebugWith("connection registered", map[string]any{"id": id, "engine": string(cfg.Engine)})
	return id, nil
}

// TestConnection probes cfg with a short-lived session.
func (r *Registry) TestConnection(ctx context.Context, cfg *database.Config) database.ConnectionTestResult {
	if cfg == nil {
		return database.ConnectionTestResult{Error: "config is required"}
	}
	a, err := r.Adapter(string(cfg.Engine))
	if err != nil {
		return database.ConnectionTestResult{Error: err.Error()}
	}
	return a.TestConnection(ctx, cfg)
}

// Connection returns the connection registered under id together with the
// adapter that serves it.
func (r *Registry) Connection(id string) (*inspector.Adapter, *inspector.Connection, error) {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("unknown connection %q", id))
	}
	a, err := r.Adapter(string(c.Config().Engine))
	if err != nil {
		return nil, nil, err
	}
	return a, c, nil
}

// Disconnect closes and forgets the connection registered under id.
func (r *Registry) Disconnect(ctx context.Context, id string) error {
	a, c, err := r.Connection(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
	return a.Disconnect(ctx, c)
}

// IDs returns the ids of every registered connection, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.conns))
}

// PoolStats merges the pool snapshots of every adapter.
func (r *Registry) PoolStats() map[string]pool.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]pool.Stats)
	for _, a := range r.adapters {
		maps.Copy(out, a.PoolStats())
	}
	return out
}

// Close disconnects everything and closes every adapter.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	adapters := slices.Collect(maps.Values(r.adapters))
	clear(r.conns)
	r.mu.Unlock()

	var errList []error
	for _, a := range adapters {
		if err := a.Close(ctx); err != nil {
			errList = append(errList, fmt.Errorf("close %s adapter: %w", a.Engine(), err))
		}
	}
	return errors.Join(errList...)
}
