package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := &database.Config{
		Engine:   database.EnginePostgres,
		Host:     "db.local",
		Database: "shop",
		User:     "app",
		Password: `it's\secret`,
	}
	assert.Equal(t,
		`host='db.local' port=5432 sslmode='disable' user='app' password='it\'s\\secret' dbname='shop'`,
		buildDSN(cfg))

	cfg.Port = 6432
	cfg.Options = map[string]string{"sslmode": "require"}
	assert.Contains(t, buildDSN(cfg), "port=6432 sslmode='require'")
}

func TestConnConfig(t *testing.T) {
	cfg := &database.Config{
		Engine:         database.EnginePostgres,
		Host:           "db.local",
		Database:       "shop",
		User:           "app",
		Password:       "it's secret",
		ConnectTimeout: 3 * time.Second,
	}
	connCfg, err := connConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "db.local", connCfg.Host)
	assert.Equal(t, uint16(5432), connCfg.Port)
	assert.Equal(t, "shop", connCfg.Database)
	assert.Equal(t, "it's secret", connCfg.Password)
	assert.Equal(t, 3*time.Second, connCfg.ConnectTimeout)
	assert.Equal(t, "dbinspect", connCfg.RuntimeParams["application_name"])

	cfg.Options = map[string]string{"dsn": "postgres://u:p@replica:5433/reports?application_name=nightly"}
	connCfg, err = connConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "replica", connCfg.Host)
	assert.Equal(t, "reports", connCfg.Database)
	assert.Equal(t, "nightly", connCfg.RuntimeParams["application_name"])

	cfg.Options = map[string]string{"dsn": "postgres://u:p@host:notaport/db"}
	_, err = connConfig(cfg)
	assert.True(t, errs.IsInvalidInput(err), "got %v", err)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"wrapped cancel", fmt.Errorf("read: %w", context.Canceled), errs.ErrKindTimeout},
		{"admin shutdown", &pgconn.PgError{Code: "08006", Message: "connection failure"}, errs.ErrKindConnectionFailed},
		{"unknown database", &pgconn.PgError{Code: "3D000", Message: `database "x" does not exist`}, errs.ErrKindConnectionFailed},
		{"bad password", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, errs.ErrKindPermissionDenied},
		{"no privilege", &pgconn.PgError{Code: "42501", Message: "permission denied for table orders"}, errs.ErrKindPermissionDenied},
		{"statement timeout", &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}, errs.ErrKindTimeout},
		{"syntax", &pgconn.PgError{Code: "42601", Message: `syntax error at or near "FORM"`}, errs.ErrKindQueryFailed},
		{"other", errors.New("cannot encode value"), errs.ErrKindQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "query failed")
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.Nil(t, mapError(nil, "unused"))
	assert.Contains(t, mapError(&pgconn.PgError{Code: "42P01", Message: `relation "x" does not exist`}, "query failed").Error(),
		`query failed: relation "x" does not exist`)
}

func TestNormalizeValue(t *testing.T) {
	id := [16]byte{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", normalizeValue(id))

	assert.Equal(t, "10.0.0.0/8", normalizeValue(netip.MustParsePrefix("10.0.0.0/8")))

	var num pgtype.Numeric
	require.NoError(t, num.Scan("12.50"))
	assert.IsType(t, "", normalizeValue(num), "numerics keep their exact text form")

	now := time.Now()
	assert.Equal(t, now, normalizeValue(now))
	assert.Equal(t, int32(7), normalizeValue(int32(7)))
	assert.Nil(t, normalizeValue(nil))
}

func TestConnector_PqRoutesThroughDatabaseSQL(t *testing.T) {
	c := New()
	_, err := c.Open(context.Background(), &database.Config{
		Engine:  database.EnginePostgres,
		Host:    "127.0.0.1",
		Options: map[string]string{"driver": "pq", "dsn": "host=127.0.0.1 port=notaport"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err) || errs.IsInvalidInput(err), "got %v", err)
}
