package pool

import (
	"sync"
	"sync/atomic"

	"github.com/koustreak/dbinspect/internal/database"
)

// Lease is exclusive ownership of one pooled session until Release.
type Lease struct {
	pool    *Pool
	session database.Session
	suspect atomic.Bool
	once    sync.Once
}

// Session returns the borrowed session.
func (l *Lease) Session() database.Session {
	return l.session
}

// MarkSuspect flags the session as untrustworthy (for example after a
// statement timeout); it is closed instead of reused on Release.
func (l *Lease) MarkSuspect() {
	l.suspect.Store(true)
}

// Release returns the session to its pool. Calling it again is a no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.release(l.session, l.suspect.Load())
	})
}
