package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBind(t *testing.T) {
	query := "a = :p0 OR b = :p0 AND c = :p1 AND d = :p10"
	params := map[string]any{"p0": "x", "p1": "y", "p10": "z"}

	t.Run("numbered placeholders", func(t *testing.T) {
		sql, args := Bind(query, params, Postgres)
		assert.Equal(t, "a = $1 OR b = $1 AND c = $2 AND d = $3", sql)
		assert.Equal(t, []any{"x", "y", "z"}, args)
	})
	t.Run("anonymous placeholders", func(t *testing.T) {
		sql, args := Bind(query, params, SQLite)
		assert.Equal(t, "a = ? OR b = ? AND c = ? AND d = ?", sql)
		assert.Equal(t, []any{"x", "x", "y", "z"}, args)
	})
	t.Run("positional", func(t *testing.T) {
		sql, args := Positional("x < :p0", map[string]any{"p0": 1})
		assert.Equal(t, "x < $1", sql)
		assert.Equal(t, []any{1}, args)
	})
}

func TestParamNames(t *testing.T) {
	names := ParamNames(map[string]any{"p10": 0, "p2": 0, "p0": 0, "p1": 0})
	assert.Equal(t, []string{"p0", "p1", "p2", "p10"}, names)
}

func TestMergeParams(t *testing.T) {
	dst := map[string]any{"p0": 1}
	assert.NoError(t, mergeParams(dst, map[string]any{"p1": 2}))
	assert.Equal(t, map[string]any{"p0": 1, "p1": 2}, dst)

	err := mergeParams(dst, map[string]any{"p1": 3})
	assert.ErrorIs(t, err, ErrParameterCollision)
	assert.EqualError(t, err, `parameter "p1" bound twice`)
}

func TestSequence(t *testing.T) {
	seq := &sequence{}
	assert.Equal(t, "p0", seq.nextParam())
	assert.Equal(t, "p1", seq.nextParam())
	assert.Equal(t, 1, seq.nextJoin())
	assert.Equal(t, 2, seq.nextJoin())
}
