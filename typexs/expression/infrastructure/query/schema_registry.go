package query

import (
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type entityMapping struct {
	entity     Entity
	properties []Property
	index      map[string]int
}

// SchemaRegistry is an in-memory SchemaResolver. It is filled through the
// Register* methods or loaded from a YAML schema file.
type SchemaRegistry struct {
	entities map[string]*entityMapping
	order    []string
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		entities: make(map[string]*entityMapping),
	}
}

// RegisterEntity registers an entity. The table defaults to the snake cased
// name and the id columns to "id".
func (r *SchemaRegistry) RegisterEntity(name, table string, idColumns ...string) *SchemaRegistry {
	m := r.mapping(name)
	if table != "" {
		m.entity.Table = table
	}
	if len(idColumns) > 0 {
		m.entity.IDColumns = append([]string(nil), idColumns...)
	}
	return r
}

// RegisterColumn registers a scalar property. The column defaults to the
// property name.
func (r *SchemaRegistry) RegisterColumn(entity, name, column string, typ ColumnType) *SchemaRegistry {
	return r.Register(entity, Property{Name: name, Column: column, Type: typ})
}

// RegisterRelation registers a relation property. A missing target is
// derived from the singular of the property name, a missing one-to-many
// reverse field from the source entity name.
func (r *SchemaRegistry) RegisterRelation(entity, name string, relation Relation) *SchemaRegistry {
	return r.Register(entity, Property{Name: name, Relation: &relation})
}

// Register adds or replaces a property of entity.
func (r *SchemaRegistry) Register(entity string, p Property) *SchemaRegistry {
	m := r.mapping(entity)
	if p.Relation != nil {
		rel := *p.Relation
		if rel.Target == "" {
			rel.Target = strcase.ToCamel(inflection.Singular(p.Name))
		}
		if rel.ReverseField == "" && rel.Cardinality == OneToMany {
			rel.ReverseField = strcase.ToLowerCamel(inflection.Singular(entity))
		}
		p.Relation = &rel
	} else {
		if p.Column == "" {
			p.Column = p.Name
		}
		if p.Type == "" {
			p.Type = TypeString
		}
	}
	if i, ok := m.index[p.Name]; ok {
		m.properties[i] = p
		return r
	}
	m.index[p.Name] = len(m.properties)
	m.properties = append(m.properties, p)
	return r
}

func (r *SchemaRegistry) mapping(name string) *entityMapping {
	m, ok := r.entities[name]
	if !ok {
		m = &entityMapping{
			entity: Entity{
				Name:      name,
				Table:     strcase.ToSnake(name),
				IDColumns: []string{"id"},
			},
			index: make(map[string]int),
		}
		r.entities[name] = m
		r.order = append(r.order, name)
	}
	return m
}

func (r *SchemaRegistry) Entity(name string) (Entity, error) {
	m, ok := r.entities[name]
	if !ok {
		return Entity{}, errors.Wrapf(ErrUnknownEntity, "%q", name)
	}
	return m.entity, nil
}

func (r *SchemaRegistry) Property(entity, name string) (Property, error) {
	m, ok := r.entities[entity]
	if !ok {
		return Property{}, errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	i, ok := m.index[name]
	if !ok {
		return Property{}, &UnknownPropertyError{Entity: entity, Path: name}
	}
	return m.properties[i], nil
}

// Properties lists the properties of entity in registration order.
func (r *SchemaRegistry) Properties(entity string) ([]Property, error) {
	m, ok := r.entities[entity]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	return append([]Property(nil), m.properties...), nil
}

// Entities lists the registered entity names in registration order.
func (r *SchemaRegistry) Entities() []string {
	return append([]string(nil), r.order...)
}

// Validate checks that every relation points to a registered entity.
func (r *SchemaRegistry) Validate() error {
	var result error
	for _, name := range r.order {
		for _, p := range r.entities[name].properties {
			if p.Relation == nil {
				continue
			}
			if _, ok := r.entities[p.Relation.Target]; !ok {
				result = multierror.Append(result, errors.Errorf(
					"%s.%s: relation target %q is not defined", name, p.Name, p.Relation.Target,
				))
			}
		}
	}
	return result
}

type schemaFile struct {
	Entities []entityFile `yaml:"entities"`
}

type entityFile struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	ID         []string       `yaml:"id"`
	Properties []propertyFile `yaml:"properties"`
}

type propertyFile struct {
	Name     string `yaml:"name"`
	Column   string `yaml:"column"`
	Type     string `yaml:"type"`
	Relation string `yaml:"relation"`
	Target   string `yaml:"target"`
	Reverse  string `yaml:"reverse"`
	Owner    bool   `yaml:"owner"`
}

// LoadSchema reads a YAML schema:
//
//	entities:
//	  - name: Car
//	    table: car
//	    id: [id]
//	    properties:
//	      - {name: id, type: integer}
//	      - {name: driver, relation: one-to-many, target: Driver, reverse: car}
//
// All problems of the file are reported together.
func LoadSchema(in io.Reader) (*SchemaRegistry, error) {
	var file schemaFile
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "unable to decode schema")
	}

	var result error
	r := NewSchemaRegistry()
	for i, e := range file.Entities {
		if e.Name == "" {
			result = multierror.Append(result, errors.Errorf("entity #%d: name is required", i))
			continue
		}
		if _, exists := r.entities[e.Name]; exists {
			result = multierror.Append(result, errors.Errorf("entity %s: defined twice", e.Name))
			continue
		}
		r.RegisterEntity(e.Name, e.Table, e.ID...)
		seen := make(map[string]bool, len(e.Properties))
		for _, p := range e.Properties {
			prop, err := p.property()
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "%s.%s", e.Name, p.Name))
				continue
			}
			if seen[p.Name] {
				result = multierror.Append(result, errors.Errorf("%s.%s: defined twice", e.Name, p.Name))
				continue
			}
			seen[p.Name] = true
			r.Register(e.Name, prop)
		}
	}
	if err := r.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if result != nil {
		return nil, result
	}
	return r, nil
}

func (p propertyFile) property() (Property, error) {
	if p.Name == "" {
		return Property{}, errors.New("name is required")
	}
	if p.Relation == "" {
		if p.Target != "" || p.Reverse != "" || p.Owner {
			return Property{}, errors.New("target, reverse and owner require a relation")
		}
		typ := ColumnType(p.Type)
		if typ != "" && !typ.Valid() {
			return Property{}, errors.Errorf("unknown type %q", p.Type)
		}
		return Property{Name: p.Name, Column: p.Column, Type: typ}, nil
	}
	cardinality, ok := ParseCardinality(p.Relation)
	if !ok {
		return Property{}, errors.Errorf("unknown relation %q", p.Relation)
	}
	if p.Owner && cardinality != OneToOne {
		return Property{}, errors.New("owner applies to one-to-one relations only")
	}
	return Property{
		Name: p.Name,
		Relation: &Relation{
			Cardinality:  cardinality,
			Target:       p.Target,
			ReverseField: p.Reverse,
			Owner:        p.Owner,
		},
	}, nil
}

func LoadSchemaFile(path string) (*SchemaRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open schema")
	}
	defer f.Close()
	return LoadSchema(f)
}
