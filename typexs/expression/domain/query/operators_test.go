package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperatorShapes(t *testing.T) {
	cases := []struct {
		name       string
		definition any
		ok         bool
	}{
		{"eq scalar", D("a", D("$eq", "x")), true},
		{"eq time", D("a", D("$eq", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))), true},
		{"eq field reference", D("a", D("$eq", "$b")), true},
		{"eq array", D("a", D("$eq", []any{1})), false},
		{"eq plain object", D("a", D("$eq", D("x", 1))), false},
		{"eq comparison operand", D("a", D("$gt", D("$lt", 1))), false},
		{"eq date expression", D("a", D("$eq", D("$year", "$created"))), true},

		{"like", D("a", D("$like", "ab*")), true},
		{"like number", D("a", D("$like", 1)), false},

		{"in", D("a", D("$in", []any{1, "x", nil})), true},
		{"in empty", D("a", D("$in", []any{})), true},
		{"in scalar", D("a", D("$in", 1)), false},
		{"nin nested", D("a", D("$nin", []any{D("x", 1)})), false},

		{"isnull true", D("a", D("$isnull", true)), true},
		{"isnull null", D("a", D("$isnull", nil)), true},
		{"isnotnull string", D("a", D("$isnotnull", "yes")), false},

		{"regex", D("a", D("$regex", "^a.*")), true},
		{"regex options", D("a", D("$regex", D("pattern", "^a", "options", "i"))), true},
		{"regex bad option", D("a", D("$regex", D("pattern", "^a", "options", "g"))), false},
		{"regex without pattern", D("a", D("$regex", D("options", "i"))), false},
		{"regex invalid", D("a", D("$regex", "[")), false},

		{"and", D("$and", []any{D("a", 1), D("b", 2)}), true},
		{"and empty", D("$and", []any{}), false},
		{"or scalar items", D("$or", []any{1, 2}), false},
		{"nor", D("$nor", []any{D("a", 1)}), true},
		{"not", D("$not", D("a", 1)), true},
		{"not scalar", D("$not", 1), false},

		{"add", D("a", D("$eq", D("$add", []any{"$b", 1, 2.5}))), true},
		{"add single", D("a", D("$eq", D("$add", []any{1}))), false},
		{"add string literal", D("a", D("$eq", D("$add", []any{"b", 1}))), false},
		{"subtract three", D("a", D("$eq", D("$subtract", []any{1, 2, 3}))), false},
		{"mod", D("a", D("$eq", D("$mod", []any{"$b", 2}))), true},
		{"divide nested", D("a", D("$eq", D("$divide", []any{D("$add", []any{"$b", 1}), 2}))), true},
		{"multiply with comparison", D("a", D("$eq", D("$multiply", []any{D("$gt", 1), 2}))), false},

		{"concat", D("a", D("$eq", D("$concat", []any{"$first", " ", "$last"}))), true},
		{"concat empty", D("a", D("$eq", D("$concat", []any{}))), false},
		{"tolower", D("a", D("$eq", D("$tolower", "$name"))), true},
		{"toupper array", D("a", D("$eq", D("$toupper", []any{"$name"}))), true},
		{"toupper two", D("a", D("$eq", D("$toupper", []any{"$a", "$b"}))), false},
		{"tolower number", D("a", D("$eq", D("$tolower", 1))), false},

		{"year", D("a", D("$eq", D("$year", "$created"))), true},
		{"hour number", D("a", D("$eq", D("$hour", 3))), false},
		{"datetrunc", D("a", D("$eq", D("$datetrunc", D("date", "$created", "unit", "month")))), true},
		{"datetrunc unit", D("a", D("$eq", D("$datetrunc", D("date", "$created", "unit", "fortnight")))), false},
		{"datetrunc without date", D("a", D("$eq", D("$datetrunc", D("unit", "day")))), false},
		{"datetrunc extra key", D("a", D("$eq", D("$datetrunc", D("date", "$c", "unit", "day", "tz", "UTC")))), false},

		{"match", D("$match", D("a", 1)), true},
		{"match scalar", D("$match", 1), false},
		{"project", D("$project", D("a", 1)), true},
		{"project empty", D("$project", D()), false},
		{"group", D("$group", D("_id", "$a", "n", D("$count", 1))), true},
		{"group null id", D("$group", D("_id", nil, "total", D("$sum", "$x"))), true},
		{"group without id", D("$group", D("n", D("$count", 1))), false},
		{"group plain field", D("$group", D("_id", "$a", "n", 1)), false},
		{"group comparison", D("$group", D("_id", "$a", "n", D("$gt", 1))), false},
		{"sort", D("$sort", D("a", 1, "b", -1, "c", "desc", "d", "ASC")), true},
		{"sort bad direction", D("$sort", D("a", 2)), false},
		{"sort empty", D("$sort", D()), false},
		{"skip zero", D("$skip", 0), true},
		{"skip negative", D("$skip", -1), false},
		{"limit zero", D("$limit", 0), false},
		{"limit float", D("$limit", 2.5), false},
		{"limit integral float", D("$limit", 2.0), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.definition)
			if c.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrMalformedOperator), "got %v", err)
		})
	}
}

func TestOperatorKinds(t *testing.T) {
	kinds := OperatorKinds()
	assert.Len(t, kinds, 44)
	seen := map[string]bool{}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown", k.String())
		assert.False(t, seen[k.String()], k.String())
		seen[k.String()] = true
	}
	assert.Equal(t, FamilyDate, OpDateTrunc.Family())
	assert.True(t, OpConcat.Family().Expression())
	assert.False(t, OpSum.Family().Expression())
	assert.Equal(t, "unknown", OperatorKind(0).String())
}

func TestSortDirection(t *testing.T) {
	asc, ok := SortDirection(int64(1))
	assert.True(t, ok)
	assert.True(t, asc)
	asc, ok = SortDirection("Desc")
	assert.True(t, ok)
	assert.False(t, asc)
	_, ok = SortDirection(0)
	assert.False(t, ok)
}
