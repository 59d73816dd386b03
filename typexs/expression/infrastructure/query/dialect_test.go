package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

func TestDialectByName(t *testing.T) {
	for name, expected := range map[string]Dialect{"postgres": Postgres, "SQLite": SQLite, "MySQL": MySQL} {
		d, err := DialectByName(name)
		require.NoError(t, err)
		assert.Equal(t, expected, d)
	}
	_, err := DialectByName("oracle")
	assert.Error(t, err)
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", Postgres.Placeholder(3))
	assert.Equal(t, "?", SQLite.Placeholder(3))
	assert.Equal(t, "?", MySQL.Placeholder(3))
}

func TestDialectRegex(t *testing.T) {
	cases := []struct {
		dialect  Dialect
		options  string
		sql      string
		embedded string
	}{
		{Postgres, "", "c ~ :p0", ""},
		{Postgres, "im", "c ~* :p0", "m"},
		{SQLite, "i", "c REGEXP :p0", "i"},
		{MySQL, "", "c REGEXP :p0", ""},
		{MySQL, "isx", "REGEXP_LIKE(c, :p0, 'in')", "x"},
	}
	for _, c := range cases {
		t.Run(c.dialect.Name()+"/"+c.options, func(t *testing.T) {
			sql, embedded, err := c.dialect.Regex("c", ":p0", c.options)
			require.NoError(t, err)
			assert.Equal(t, c.sql, sql)
			assert.Equal(t, c.embedded, embedded)
		})
	}

	t.Run("sqlite/x", func(t *testing.T) {
		_, _, err := SQLite.Regex("c", ":p0", "ix")
		assert.ErrorIs(t, err, ErrUnsupportedNode)
	})
}

func TestDialectDates(t *testing.T) {
	assert.Equal(t, "EXTRACT(DOW FROM c)", Postgres.DatePart(domainquery.OpDayOfWeek, "c"))
	assert.Equal(t, "CAST(strftime('%j', c) AS INTEGER)", SQLite.DatePart(domainquery.OpDayOfYear, "c"))
	assert.Equal(t, "MONTH(c)", MySQL.DatePart(domainquery.OpMonth, "c"))

	assert.Equal(t, "date_trunc('week', c)", Postgres.DateTrunc("week", "c"))
	assert.Equal(t, "strftime('%Y-%m-01 00:00:00', c)", SQLite.DateTrunc("month", "c"))
	assert.Equal(t, "DATE(c)", MySQL.DateTrunc("day", "c"))
}

func TestDialectConcatAndQuoting(t *testing.T) {
	assert.Equal(t, "(a || b)", Postgres.Concat([]string{"a", "b"}))
	assert.Equal(t, "CONCAT(a, b)", MySQL.Concat([]string{"a", "b"}))
	assert.Equal(t, `"a""b"`, SQLite.QuoteIdentifier(`a"b`))
	assert.Equal(t, "`a.b`", MySQL.QuoteIdentifier("a.b"))
}

func TestBuilderDialectExpressions(t *testing.T) {
	res := mustBuild(t,
		domainquery.D("name", domainquery.D("$eq", domainquery.D("$concat", []any{"$name", "-", "$doors"}))),
		WithDialect(MySQL),
	)
	assert.Equal(t, "car.name = CONCAT(car.name, :p0, car.doors)", res.Query)
	assert.Equal(t, map[string]any{"p0": "-"}, res.Params)
}
