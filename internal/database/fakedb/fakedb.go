// Package fakedb is a scripted in-memory database.Connector for tests.
//
// Statements are matched against registered rules by case-insensitive
// substring; the most recently registered matching rule wins. Statements
// without a rule succeed with an empty result.
package fakedb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/dbinspect/internal/database"
)

// ErrClosed is returned by Exec on a closed session.
var ErrClosed = errors.New("fakedb: session closed")

// HandlerFunc produces the outcome of one statement.
type HandlerFunc func(query string, args []any) (*database.ResultSet, error)

type rule struct {
	pattern   string
	handle    HandlerFunc
	delay     time.Duration
	remaining int // < 0 means unlimited
}

// Connector records every session and statement it serves.
type Connector struct {
	mu         sync.Mutex
	rules      []*rule
	openErr    error
	opens      int
	closes     int
	statements []string
	configs    []*database.Config
}

// New returns an empty connector.
func New() *Connector {
	return &Connector{}
}

// On answers statements containing pattern with rs.
func (c *Connector) On(pattern string, rs *database.ResultSet) *Connector {
	return c.Handle(pattern, func(string, []any) (*database.ResultSet, error) { return rs, nil })
}

// Fail makes statements containing pattern return err.
func (c *Connector) Fail(pattern string, err error) *Connector {
	return c.Handle(pattern, func(string, []any) (*database.ResultSet, error) { return nil, err })
}

// FailTimes makes the next n statements containing pattern return err.
func (c *Connector) FailTimes(pattern string, err error, n int) *Connector {
	c.add(&rule{
		pattern:   pattern,
		handle:    func(string, []any) (*database.ResultSet, error) { return nil, err },
		remaining: n,
	})
	return c
}

// Delay makes statements containing pattern block for d or until their
// context ends.
func (c *Connector) Delay(pattern string, d time.Duration) *Connector {
	c.add(&rule{pattern: pattern, delay: d, remaining: -1})
	return c
}

// Handle answers statements containing pattern with fn.
func (c *Connector) Handle(pattern string, fn HandlerFunc) *Connector {
	c.add(&rule{pattern: pattern, handle: fn, remaining: -1})
	return c
}

func (c *Connector) add(r *rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, r)
}

// SetOpenError makes subsequent Open calls fail with err (nil to clear).
func (c *Connector) SetOpenError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// Opens reports how many sessions were opened.
func (c *Connector) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// Closes reports how many sessions were closed.
func (c *Connector) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// Statements returns every statement executed so far, in order.
func (c *Connector) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.statements...)
}

// Executed reports how many executed statements contain pattern.
func (c *Connector) Executed(pattern string) int {
	n := 0
	for _, s := range c.Statements() {
		if match(s, pattern) {
			n++
		}
	}
	return n
}

// Configs returns the configs sessions were opened with.
func (c *Connector) Configs() []*database.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*database.Config(nil), c.configs...)
}

// Open implements database.Connector.
func (c *Connector) Open(ctx context.Context, cfg *database.Config) (database.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opens++
	c.configs = append(c.configs, cfg)
	return &session{c: c}, nil
}

// Rows builds a result set from column names and row values. Native types
// default to "text"; use a "name:type" column spec to set one.
func Rows(columns []string, rows ...[]any) *database.ResultSet {
	rs := &database.ResultSet{Rows: rows}
	if rs.Rows == nil {
		rs.Rows = [][]any{}
	}
	for _, col := range columns {
		name, typ, ok := strings.Cut(col, ":")
		if !ok {
			typ = "text"
		}
		rs.Columns = append(rs.Columns, database.ResultColumn{Name: name, NativeType: typ})
	}
	return rs
}

type session struct {
	c      *Connector
	mu     sync.Mutex
	closed bool
}

func (s *session) Exec(ctx context.Context, query string, args ...any) (*database.ResultSet, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	s.c.mu.Lock()
	s.c.statements = append(s.c.statements, query)
	var hit *rule
	var delay time.Duration
	for i := len(s.c.rules) - 1; i >= 0; i-- {
		r := s.c.rules[i]
		if r.remaining == 0 || !match(query, r.pattern) {
			continue
		}
		if r.delay > 0 {
			if delay == 0 {
				delay = r.delay
			}
			continue
		}
		if r.remaining > 0 {
			r.remaining--
		}
		hit = r
		break
	}
	s.c.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if hit == nil {
		return &database.ResultSet{Rows: [][]any{}}, nil
	}
	return hit.handle(query, args)
}

func (s *session) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("fakedb: session closed twice")
	}
	s.closed = true
	s.c.mu.Lock()
	s.c.closes++
	s.c.mu.Unlock()
	return nil
}

func match(query, pattern string) bool {
	return strings.Contains(strings.ToUpper(query), strings.ToUpper(pattern))
}
