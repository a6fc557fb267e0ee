package database

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestPgVector_RoundTrip(t *testing.T) {
	v := NewPgVector([]float64{1, 0.5, -2})
	raw, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,0.5,-2]", raw)

	var out PgVector
	require.NoError(t, out.Scan([]byte("[1, 0.5, -2]")))
	assert.Equal(t, []float64{1, 0.5, -2}, out.Floats())
	assert.True(t, out.Valid())
}

func TestPgVector_NullHandling(t *testing.T) {
	raw, err := NewPgVector(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, raw)

	var out PgVector
	require.NoError(t, out.Scan(nil))
	assert.False(t, out.Valid())
	assert.Nil(t, out.Floats())
}

func TestPgVector_ScanRejectsGarbage(t *testing.T) {
	var out PgVector
	assert.Error(t, out.Scan("[1,x]"))
	assert.Error(t, out.Scan(42))
}

func TestPgVector_CopiesInput(t *testing.T) {
	src := []float64{1, 2}
	v := NewPgVector(src)
	src[0] = 9
	assert.Equal(t, 1.0, v.Floats()[0])
}

func TestPgVector_ParsesAsColumn(t *testing.T) {
	type row struct {
		ID        int64
		Embedding PgVector
	}
	s, err := schema.Parse(&row{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := s.LookUpField("Embedding")
	require.NotNil(t, field)
	assert.Equal(t, schema.DataType("vector"), field.DataType)
	assert.Empty(t, s.Relationships.Relations)
}
