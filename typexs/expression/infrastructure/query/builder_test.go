package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

func newTestSchema() *SchemaRegistry {
	return NewSchemaRegistry().
		RegisterEntity("Car", "car").
		RegisterColumn("Car", "id", "id", TypeInteger).
		RegisterColumn("Car", "name", "name", TypeString).
		RegisterColumn("Car", "doors", "doors", TypeInteger).
		RegisterColumn("Car", "built", "built", TypeDate).
		RegisterColumn("Car", "registered", "registered", TypeTimestamp).
		RegisterColumn("Car", "serial", "serial", TypeUUID).
		RegisterRelation("Car", "driver", Relation{Cardinality: OneToMany}).
		RegisterRelation("Car", "owner", Relation{Cardinality: ManyToOne, Target: "Person"}).
		RegisterRelation("Car", "tags", Relation{Cardinality: ManyToMany}).
		RegisterEntity("Driver", "driver").
		RegisterColumn("Driver", "id", "id", TypeInteger).
		RegisterColumn("Driver", "name", "name", TypeString).
		RegisterRelation("Driver", "license", Relation{Cardinality: ManyToOne}).
		RegisterEntity("License", "license").
		RegisterColumn("License", "id", "id", TypeInteger).
		RegisterColumn("License", "number", "number", TypeString).
		RegisterEntity("Person", "person").
		RegisterColumn("Person", "id", "id", TypeInteger).
		RegisterColumn("Person", "name", "name", TypeString).
		RegisterRelation("Person", "passport", Relation{Cardinality: OneToOne}).
		RegisterEntity("Passport", "passport").
		RegisterColumn("Passport", "id", "id", TypeInteger).
		RegisterColumn("Passport", "number", "number", TypeString).
		RegisterEntity("Tag", "tag").
		RegisterColumn("Tag", "id", "id", TypeInteger).
		RegisterColumn("Tag", "name", "name", TypeString)
}

func build(t *testing.T, definition any, opts ...BuilderOption) (Result, error) {
	t.Helper()
	n, err := domainquery.Parse(definition)
	require.NoError(t, err)
	return NewBuilder(newTestSchema(), "Car", opts...).Build(n)
}

func mustBuild(t *testing.T, definition any, opts ...BuilderOption) Result {
	t.Helper()
	res, err := build(t, definition, opts...)
	require.NoError(t, err)
	return res
}

func TestBuilderScenarios(t *testing.T) {
	t.Run("implicit equality", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("name", "x"))
		assert.Equal(t, "car.name = :p0", res.Query)
		assert.Equal(t, map[string]any{"p0": "x"}, res.Params)
		assert.Empty(t, res.Joins)
	})
	t.Run("less than", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("id", domainquery.D("$lt", 1)))
		assert.Equal(t, "car.id < :p0", res.Query)
		assert.Equal(t, map[string]any{"p0": int64(1)}, res.Params)
	})
	t.Run("or", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("$or", []any{
			domainquery.D("name", "a"),
			domainquery.D("id", 1),
		}))
		assert.Equal(t, "(car.name = :p0) OR (car.id = :p1)", res.Query)
		assert.Equal(t, map[string]any{"p0": "a", "p1": int64(1)}, res.Params)
	})
	t.Run("one-to-many join", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("driver.id", 1))
		assert.Equal(t, "driver_1.id = :p0", res.Query)
		require.Len(t, res.Joins, 1)
		assert.Equal(t, Join{Alias: "driver_1", Table: "driver", On: "driver_1.carId = car.id"}, res.Joins[0])
		assert.Equal(t, "LEFT JOIN driver driver_1 ON driver_1.carId = car.id", res.Joins[0].SQL())
	})
	t.Run("array wrapped stage", func(t *testing.T) {
		stage := domainquery.D("$match", domainquery.D("doors", domainquery.D("$le", 2)))
		wrapped := mustBuild(t, []any{stage})
		bare := mustBuild(t, stage)
		assert.Equal(t, "car.doors <= :p0", bare.Query)
		assert.Equal(t, bare, wrapped)
	})
	t.Run("malformed operator", func(t *testing.T) {
		_, err := domainquery.Parse(domainquery.D("id", domainquery.D("$in", 5)))
		assert.True(t, errors.Is(err, domainquery.ErrMalformedOperator))
		var malformed *domainquery.MalformedOperatorDefinitionError
		assert.True(t, errors.As(err, &malformed))
	})
}

func TestBuilderEqualityRoundTrip(t *testing.T) {
	implicit := mustBuild(t, domainquery.D("name", "a", "doors", 4))
	explicit := mustBuild(t, domainquery.D(
		"name", domainquery.D("$eq", "a"),
		"doors", domainquery.D("$eq", 4),
	))
	assert.Equal(t, "(car.name = :p0) AND (car.doors = :p1)", implicit.Query)
	assert.Equal(t, explicit, implicit)
}

func TestBuilderIdempotentNaming(t *testing.T) {
	n, err := domainquery.Parse(domainquery.D("$or", []any{
		domainquery.D("driver.name", "a"),
		domainquery.D("owner.name", "b"),
	}))
	require.NoError(t, err)

	schema := newTestSchema()
	first, err := NewBuilder(schema, "Car").Build(n)
	require.NoError(t, err)
	second, err := NewBuilder(schema, "Car").Build(n)
	require.NoError(t, err)

	assert.Equal(t, first.Query, second.Query)
	assert.Equal(t, first.Joins, second.Joins)
	assert.Equal(t, first.Params, second.Params)

	first.Params["p0"] = "changed"
	assert.Equal(t, "a", second.Params["p0"])
}

func TestBuilderSingleUse(t *testing.T) {
	n, err := domainquery.Parse(domainquery.D("name", "x"))
	require.NoError(t, err)
	b := NewBuilder(newTestSchema(), "Car")
	_, err = b.Build(n)
	require.NoError(t, err)
	_, err = b.Build(n)
	assert.ErrorIs(t, err, ErrBuilderUsed)
}

func TestBuilderJoins(t *testing.T) {
	t.Run("reused for the same hop", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("driver.name", "a", "driver.id", 1))
		assert.Equal(t, "(driver_1.name = :p0) AND (driver_1.id = :p1)", res.Query)
		assert.Len(t, res.Joins, 1)
	})
	t.Run("unique alias per hop", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("driver.license.number", "x", "owner.name", "y"))
		assert.Equal(t, "(license_2.number = :p0) AND (person_3.name = :p1)", res.Query)
		assert.Equal(t, []Join{
			{Alias: "driver_1", Table: "driver", On: "driver_1.carId = car.id"},
			{Alias: "license_2", Table: "license", On: "license_2.id = driver_1.licenseId"},
			{Alias: "person_3", Table: "person", On: "person_3.id = car.ownerId"},
		}, res.Joins)
	})
	t.Run("foreign key without join", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("owner", 3))
		assert.Equal(t, "car.ownerId = :p0", res.Query)
		assert.Empty(t, res.Joins)
	})
	t.Run("inverse one-to-one", func(t *testing.T) {
		_, err := build(t, domainquery.D("owner.passport.number", "x"))
		assert.ErrorIs(t, err, ErrUnsupportedRelationShape)
	})
	t.Run("many-to-many", func(t *testing.T) {
		_, err := build(t, domainquery.D("tags.name", "x"))
		var shape *UnsupportedRelationShapeError
		require.True(t, errors.As(err, &shape))
		assert.Equal(t, "tags", shape.Property)
	})
	t.Run("composite key", func(t *testing.T) {
		schema := NewSchemaRegistry().
			RegisterEntity("Order", "orders").
			RegisterRelation("Order", "item", Relation{Cardinality: ManyToOne}).
			RegisterEntity("Item", "item", "sku", "lot").
			RegisterColumn("Item", "name", "", "")
		n, err := domainquery.Parse(domainquery.D("item.name", "x"))
		require.NoError(t, err)
		_, err = NewBuilder(schema, "Order").Build(n)
		assert.ErrorIs(t, err, ErrUnsupportedRelationShape)
	})
	t.Run("unknown property", func(t *testing.T) {
		_, err := build(t, domainquery.D("color", "red"))
		var unknown *UnknownPropertyError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "color", unknown.Path)
	})
	t.Run("segment below a column", func(t *testing.T) {
		_, err := build(t, domainquery.D("name.first", "x"))
		assert.ErrorIs(t, err, ErrUnknownProperty)
	})
}

func TestBuilderOperators(t *testing.T) {
	cases := []struct {
		name   string
		query  any
		sql    string
		params map[string]any
	}{
		{"ne", domainquery.D("name", domainquery.D("$ne", "a")), "car.name <> :p0", map[string]any{"p0": "a"}},
		{"ge", domainquery.D("doors", domainquery.D("$ge", 2)), "car.doors >= :p0", map[string]any{"p0": int64(2)}},
		{"eq null", domainquery.D("name", nil), "car.name IS NULL", map[string]any{}},
		{"ne null", domainquery.D("name", domainquery.D("$ne", nil)), "car.name IS NOT NULL", map[string]any{}},
		{"like", domainquery.D("name", domainquery.D("$like", "Au*")), "car.name LIKE :p0", map[string]any{"p0": "Au%"}},
		{"in", domainquery.D("id", domainquery.D("$in", []any{1, 2})), "car.id IN (:p0, :p1)", map[string]any{"p0": int64(1), "p1": int64(2)}},
		{"nin", domainquery.D("name", domainquery.D("$nin", []any{"a"})), "car.name NOT IN (:p0)", map[string]any{"p0": "a"}},
		{"empty in", domainquery.D("id", domainquery.D("$in", []any{})), "1 = 0", map[string]any{}},
		{"empty nin", domainquery.D("id", domainquery.D("$nin", []any{})), "1 = 1", map[string]any{}},
		{"array as in", domainquery.D("name", []any{"a", "b"}), "car.name IN (:p0, :p1)", map[string]any{"p0": "a", "p1": "b"}},
		{"empty array", domainquery.D("name", []any{}), "1 = 0", map[string]any{}},
		{"empty array beside a field", domainquery.D("name", "x", "doors", []any{}), "(car.name = :p0) AND (1 = 0)", map[string]any{"p0": "x"}},
		{"isnull", domainquery.D("name", domainquery.D("$isNull", true)), "car.name IS NULL", map[string]any{}},
		{"isnull false", domainquery.D("name", domainquery.D("$isNull", false)), "car.name IS NOT NULL", map[string]any{}},
		{"isnotnull", domainquery.D("name", domainquery.D("$isNotNull", nil)), "car.name IS NOT NULL", map[string]any{}},
		{"regex", domainquery.D("name", domainquery.D("$regex", "^a")), "car.name ~ :p0", map[string]any{"p0": "^a"}},
		{
			"regex options",
			domainquery.D("name", domainquery.D("$regex", domainquery.D("pattern", "^a", "options", "ix"))),
			"car.name ~* :p0",
			map[string]any{"p0": "(?x)^a"},
		},
		{
			"not",
			domainquery.D("$not", domainquery.D("name", "a")),
			"NOT (car.name = :p0)",
			map[string]any{"p0": "a"},
		},
		{
			"nor",
			domainquery.D("$nor", []any{domainquery.D("name", "a"), domainquery.D("name", "b")}),
			"NOT ((car.name = :p0) OR (car.name = :p1))",
			map[string]any{"p0": "a", "p1": "b"},
		},
		{
			"and next to a field",
			domainquery.D("name", "a", "$and", []any{domainquery.D("doors", 2), domainquery.D("id", 1)}),
			"(car.name = :p0) AND ((car.doors = :p1) AND (car.id = :p2))",
			map[string]any{"p0": "a", "p1": int64(2), "p2": int64(1)},
		},
		{
			"arithmetic operand",
			domainquery.D("doors", domainquery.D("$gt", domainquery.D("$add", []any{"$id", 1}))),
			"car.doors > (car.id + :p0)",
			map[string]any{"p0": 1},
		},
		{
			"string operand",
			domainquery.D("name", domainquery.D("$eq", domainquery.D("$toUpper", "$name"))),
			"car.name = UPPER(car.name)",
			map[string]any{},
		},
		{
			"date part operand",
			domainquery.D("doors", domainquery.D("$eq", domainquery.D("$year", "$built"))),
			"car.doors = EXTRACT(YEAR FROM car.built)",
			map[string]any{},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := mustBuild(t, c.query)
			assert.Equal(t, c.sql, res.Query)
			assert.Equal(t, c.params, res.Params)
		})
	}
}

func TestBuilderRejectsExpressionsAsConditions(t *testing.T) {
	_, err := build(t, domainquery.D("$add", []any{1, 2}))
	assert.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestBuilderCoercion(t *testing.T) {
	day := time.Date(2024, 3, 5, 13, 30, 0, 0, time.FixedZone("CET", 3600))

	t.Run("date column", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("built", day))
		assert.Equal(t, "2024-03-05", res.Params["p0"])
	})
	t.Run("date column from string", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("built", domainquery.D("$ge", "2024-03-05T10:00:00Z")))
		assert.Equal(t, "2024-03-05", res.Params["p0"])
	})
	t.Run("timestamp column", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("registered", domainquery.D("$lt", day)))
		assert.Equal(t, day.UTC(), res.Params["p0"])
	})
	t.Run("uuid column", func(t *testing.T) {
		id := uuid.New()
		res := mustBuild(t, domainquery.D("serial", id.String()))
		assert.Equal(t, id, res.Params["p0"])
	})
	t.Run("invalid uuid", func(t *testing.T) {
		_, err := build(t, domainquery.D("serial", "nope"))
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
	t.Run("fraction for integer column", func(t *testing.T) {
		_, err := build(t, domainquery.D("doors", 2.5))
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
	t.Run("having mode formats dates", func(t *testing.T) {
		res := mustBuild(t, domainquery.D("last", domainquery.D("$gt", day)), WithMode(Having))
		assert.Equal(t, "last > :p0", res.Query)
		assert.Equal(t, "2024-03-05T12:30:00Z", res.Params["p0"])
	})
}

func TestBuilderHavingMode(t *testing.T) {
	res := mustBuild(t, domainquery.D("total", domainquery.D("$gt", 5), "driver.name", "x"), WithMode(Having))
	assert.Equal(t, "(total > :p0) AND (driver.name = :p1)", res.Query)
	assert.Empty(t, res.Joins)
}

func TestBuilderOptions(t *testing.T) {
	b := NewBuilder(newTestSchema(), "Car", WithRootAlias("c"), WithDialect(SQLite), WithMode(Having))
	assert.Equal(t, "c", b.RootAlias())
	assert.Equal(t, Having, b.Mode())

	res := mustBuild(t, domainquery.D("name", domainquery.D("$regex", "^a")), WithRootAlias("c"), WithDialect(SQLite))
	assert.Equal(t, "c.name REGEXP :p0", res.Query)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("HAVING")
	require.NoError(t, err)
	assert.Equal(t, Having, m)
	assert.Equal(t, "where", Where.String())

	_, err = ParseMode("order")
	assert.Error(t, err)
}
