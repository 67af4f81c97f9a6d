package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/koustreak/dbinspect/internal/errs"
)

// Pool sizing defaults applied by WithDefaults.
const (
	DefaultConnectionLimit = 10
	DefaultMinIdle         = 2
	DefaultIdleTimeout     = 30 * time.Second
	DefaultAcquireTimeout  = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second

	// NoMinIdle asks for no idle floor: every idle session may be reaped.
	NoMinIdle = -1
)

// Config describes one connection target. It is treated as immutable once a
// connection has been established from it.
type Config struct {
	Engine   Engine `yaml:"engine" validate:"required"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Schema overrides the engine's default schema for metadata calls.
	Schema string `yaml:"schema"`

	// Options is the driver-specific option bag. Recognised keys:
	// "driver" (database/sql driver name), "dsn" (verbatim data source name),
	// "sslmode" and anything a DSN builder chooses to forward.
	Options map[string]string `yaml:"options"`

	// Pool tuning
	ConnectionLimit int           `yaml:"connection_limit" validate:"gte=0"`
	MinIdle         int           `yaml:"min_idle" validate:"gte=-1"` // 0 = default, NoMinIdle = none
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gte=0"`
	AcquireTimeout  time.Duration `yaml:"acquire_timeout" validate:"gte=0"`

	// Timeouts
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gte=0"`
	QueryTimeout   time.Duration `yaml:"query_timeout" validate:"gte=0"` // default per-query deadline, 0 = none
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// WithDefaults returns a copy of c with zero-valued pool settings and the
// port replaced by their defaults. A MinIdle of NoMinIdle is kept as is, so
// applying WithDefaults twice yields the same config.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = c.Engine.DefaultPort()
	}
	if c.ConnectionLimit == 0 {
		c.ConnectionLimit = DefaultConnectionLimit
	}
	if c.MinIdle == 0 {
		c.MinIdle = DefaultMinIdle
	}
	if c.MinIdle > c.ConnectionLimit {
		c.MinIdle = c.ConnectionLimit
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Options != nil {
		c.Options = maps.Clone(c.Options)
	}
	return c
}

// Validate checks field ranges and that the engine tag is known.
func (c *Config) Validate() error {
	if c == nil {
		return errs.New(errs.ErrKindInvalidInput, "config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid database config", err)
	}
	e, err := ParseEngine(string(c.Engine))
	if err != nil {
		return err
	}
	if e != c.Engine {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("engine %q must be given in canonical form %q", c.Engine, e))
	}
	if c.Host == "" && c.Option("dsn") == "" && c.Engine != EngineFirebird {
		return errs.New(errs.ErrKindInvalidInput, "host is required")
	}
	return nil
}

// Option returns the named driver option or "".
func (c *Config) Option(key string) string {
	if c.Options == nil {
		return ""
	}
	return c.Options[key]
}

// Key identifies the target for pool sharing. Two configs with the same key
// may share sessions.
func (c *Config) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00%d\x00%s\x00%s\x00%s\x00%s",
		c.Engine, c.Host, c.Port, c.Database, c.User, c.Password, c.Schema)
	for _, k := range slices.Sorted(maps.Keys(c.Options)) {
		fmt.Fprintf(&b, "\x00%s=%s", k, c.Options[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// LogFields returns the target description safe for logging.
func (c *Config) LogFields() map[string]any {
	return map[string]any{
		"engine":   string(c.Engine),
		"host":     c.Host,
		"port":     c.Port,
		"database": c.Database,
		"user":     c.User,
	}
}
