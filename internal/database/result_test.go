package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceScanner struct {
	rows [][]any
	pos  int
	err  error
}

func (s *sliceScanner) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceScanner) Scan(dest ...any) error {
	for i, v := range s.rows[s.pos-1] {
		*(dest[i].(*any)) = v
	}
	return nil
}

func (s *sliceScanner) Err() error { return s.err }

func TestScanRows(t *testing.T) {
	rows, err := ScanRows(&sliceScanner{rows: [][]any{{1, "a"}, {2, "b"}}}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{1, "a"}, {2, "b"}}, rows)

	empty, err := ScanRows(&sliceScanner{}, 2)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = ScanRows(&sliceScanner{err: errors.New("broken pipe")}, 1)
	assert.EqualError(t, err, "broken pipe")
}

func TestRow_GetAndMap(t *testing.T) {
	row := Row{
		{Name: "id", Type: TypeNumber, Value: int64(7)},
		{Name: "name", Type: TypeString, Value: "ada"},
	}

	v, ok := row.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "ada", v)

	_, ok = row.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"id": int64(7), "name": "ada"}, row.Map())
}

func TestFailed(t *testing.T) {
	res := Failed("SELECT 1", errors.New("boom"), 3)
	assert.False(t, res.Success)
	assert.Empty(t, res.Rows)
	assert.Equal(t, "boom", res.Error)
	assert.Equal(t, int64(3), res.ExecutionTimeMs)
}

func TestTableInfo_Column(t *testing.T) {
	ti := TableInfo{Columns: []ColumnMetadata{{Name: "id", OrdinalPosition: 1}}}
	c, ok := ti.Column("id")
	assert.True(t, ok)
	assert.Equal(t, 1, c.OrdinalPosition)
}
