package inspector

import (
	"context"
	"fmt"
	"sync"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/pool"
)

// State is the lifecycle position of a Connection.
type State int

const (
	StateCreated State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connection is a live handle to one target. Statements are served by the
// target's pool; the handle itself is safe for concurrent use, and every
// call borrows its own session.
type Connection struct {
	cfg    database.Config
	schema string

	mu    sync.Mutex
	state State
	entry *poolEntry
}

// State reports where the connection is in its lifecycle.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the connection can serve calls.
func (c *Connection) Connected() bool {
	return c.State() == StateConnected
}

// Config returns the target the connection was established from.
func (c *Connection) Config() database.Config {
	return c.cfg
}

// DefaultSchema is the schema metadata calls use when none is given.
func (c *Connection) DefaultSchema() string {
	if c == nil {
		return ""
	}
	return c.schema
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// acquire borrows a session, failing with ErrKindNotConnected unless the
// connection is live.
func (c *Connection) acquire(ctx context.Context) (*pool.Lease, error) {
	if c == nil {
		return nil, errs.New(errs.ErrKindNotConnected, "connection was never established")
	}
	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		return nil, errs.New(errs.ErrKindNotConnected, fmt.Sprintf("connection is %s", state))
	}
	p := c.entry.pool
	c.mu.Unlock()

	lease, err := p.Acquire(ctx)
	if errs.IsPoolClosed(err) {
		// the adapter was closed underneath us
		c.detach()
		return nil, errs.Wrap(errs.ErrKindNotConnected, "connection pool was closed", err)
	}
	return lease, err
}

// detach moves the connection to Disconnected and returns the pool entry it
// held, or nil when it held none.
func (c *Connection) detach() *poolEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	e := c.entry
	c.entry = nil
	return e
}
