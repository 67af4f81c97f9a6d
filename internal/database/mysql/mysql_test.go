package mysql

import (
	"fmt"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(&database.Config{
		Engine:         database.EngineMySQL,
		Host:           "db.local",
		Database:       "shop",
		User:           "app",
		Password:       "p@ss:word",
		ConnectTimeout: 5 * time.Second,
		Options:        map[string]string{"charset": "utf8mb4"},
	})
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.local:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code uint16
		want errs.ErrKind
	}{
		{1045, errs.ErrKindPermissionDenied},
		{1142, errs.ErrKindPermissionDenied},
		{1049, errs.ErrKindConnectionFailed},
		{1040, errs.ErrKindConnectionFailed},
		{3024, errs.ErrKindTimeout},
		{1146, errs.ErrKindQueryFailed},
		{1064, errs.ErrKindQueryFailed},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			kind, ok := classify(fmt.Errorf("exec: %w", &gomysql.MySQLError{Number: tt.code, Message: "x"}))
			assert.True(t, ok)
			assert.Equal(t, tt.want, kind)
		})
	}

	kind, ok := classify(gomysql.ErrInvalidConn)
	assert.True(t, ok)
	assert.Equal(t, errs.ErrKindConnectionFailed, kind)

	_, ok = classify(fmt.Errorf("plain"))
	assert.False(t, ok)
}
