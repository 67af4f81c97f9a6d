package database

import "context"

// Connector opens native sessions to one engine.
// Layers above this package talk only to this interface and never import
// a driver package directly.
type Connector interface {
	// Open establishes one session for cfg, bounded by ctx.
	Open(ctx context.Context, cfg *Config) (Session, error)
}

// Session is one native connection. A session is used by a single caller
// at a time; statements run in submission order.
type Session interface {
	// Exec runs one statement and buffers its full result.
	// Statements that return no rows yield an empty ResultSet with
	// RowsAffected set when the driver reports it.
	Exec(ctx context.Context, query string, args ...any) (*ResultSet, error)

	// Close releases the native handle. It is called exactly once.
	Close(ctx context.Context) error
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, cfg *Config) (Session, error)

func (f ConnectorFunc) Open(ctx context.Context, cfg *Config) (Session, error) {
	return f(ctx, cfg)
}

// Transactor is implemented by sessions whose driver must control
// transactions itself, for engines that begin transactions implicitly and
// would otherwise autocommit every statement.
type Transactor interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
