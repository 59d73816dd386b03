package query

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaRegistryDefaults(t *testing.T) {
	r := NewSchemaRegistry().
		RegisterEntity("CarModel", "").
		RegisterColumn("CarModel", "name", "", "").
		RegisterRelation("CarModel", "wheels", Relation{Cardinality: OneToMany})

	e, err := r.Entity("CarModel")
	require.NoError(t, err)
	assert.Equal(t, Entity{Name: "CarModel", Table: "car_model", IDColumns: []string{"id"}}, e)

	p, err := r.Property("CarModel", "name")
	require.NoError(t, err)
	assert.Equal(t, Property{Name: "name", Column: "name", Type: TypeString}, p)
	assert.False(t, p.IsRelation())

	p, err = r.Property("CarModel", "wheels")
	require.NoError(t, err)
	require.True(t, p.IsRelation())
	assert.Equal(t, "Wheel", p.Relation.Target)
	assert.Equal(t, "carModel", p.Relation.ReverseField)

	_, err = r.Property("CarModel", "color")
	assert.ErrorIs(t, err, ErrUnknownProperty)
	_, err = r.Entity("Boat")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestSchemaRegistryReplace(t *testing.T) {
	r := NewSchemaRegistry().
		RegisterColumn("Car", "name", "", "").
		RegisterColumn("Car", "name", "title", TypeString)

	props, err := r.Properties("Car")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "title", props[0].Column)
	assert.Equal(t, []string{"Car"}, r.Entities())
}

func TestSchemaRegistryValidate(t *testing.T) {
	r := NewSchemaRegistry().
		RegisterRelation("Car", "owner", Relation{Cardinality: ManyToOne, Target: "Person"}).
		RegisterRelation("Car", "drivers", Relation{Cardinality: OneToMany})

	err := r.Validate()
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
}

func TestLoadSchemaFile(t *testing.T) {
	r, err := LoadSchemaFile("testdata/schema.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Car", "Driver", "Person"}, r.Entities())

	p, err := r.Property("Person", "name")
	require.NoError(t, err)
	assert.Equal(t, "full_name", p.Column)

	p, err = r.Property("Car", "driver")
	require.NoError(t, err)
	assert.Equal(t, Relation{Cardinality: OneToMany, Target: "Driver", ReverseField: "car"}, *p.Relation)

	p, err = r.Property("Car", "built")
	require.NoError(t, err)
	assert.Equal(t, TypeDate, p.Type)
}

func TestLoadSchemaErrors(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadSchema(strings.NewReader("entities:\n  - name: Car\n    colour: red\n"))
		assert.Error(t, err)
	})
	t.Run("all problems reported", func(t *testing.T) {
		_, err := LoadSchema(strings.NewReader(`
entities:
  - name: Car
    properties:
      - {name: id, type: number}
      - {name: owner, relation: sideways}
      - {name: driver, relation: many-to-one, owner: true}
      - {name: name}
      - {name: name}
      - {name: tags, relation: many-to-many}
  - table: nameless
  - name: Car
`))
		var merr *multierror.Error
		require.True(t, errors.As(err, &merr))
		assert.Len(t, merr.Errors, 7)
		assert.Contains(t, err.Error(), `Car.id: unknown type "number"`)
		assert.Contains(t, err.Error(), `Car.tags: relation target "Tag" is not defined`)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchemaFile("testdata/missing.yaml")
		assert.Error(t, err)
	})
}

func TestCardinality(t *testing.T) {
	for _, c := range []Cardinality{OneToOne, OneToMany, ManyToOne, ManyToMany} {
		parsed, ok := ParseCardinality(c.String())
		require.True(t, ok)
		assert.Equal(t, c, parsed)
	}
	_, ok := ParseCardinality("some")
	assert.False(t, ok)
	assert.True(t, TypeULID.Valid())
	assert.False(t, ColumnType("money").Valid())
}
