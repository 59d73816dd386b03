package query

// Cardinality describes how many rows of the target a relation reaches.
type Cardinality int

const (
	OneToOne Cardinality = iota + 1
	OneToMany
	ManyToOne
	ManyToMany
)

var cardinalityNames = map[Cardinality]string{
	OneToOne:   "one-to-one",
	OneToMany:  "one-to-many",
	ManyToOne:  "many-to-one",
	ManyToMany: "many-to-many",
}

func (c Cardinality) String() string {
	if name, ok := cardinalityNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCardinality is the inverse of Cardinality.String.
func ParseCardinality(s string) (Cardinality, bool) {
	for c, name := range cardinalityNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

// ColumnType decides how compared values are coerced before binding.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
	TypeUUID      ColumnType = "uuid"
	TypeULID      ColumnType = "ulid"
	TypeJSON      ColumnType = "json"
)

var columnTypes = []ColumnType{
	TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate,
	TypeTimestamp, TypeUUID, TypeULID, TypeJSON,
}

func (t ColumnType) Valid() bool {
	for _, known := range columnTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Relation links a property to another entity.
type Relation struct {
	Cardinality Cardinality

	// Target is the name of the related entity.
	Target string

	// ReverseField names the property on the target pointing back to the
	// source. One-to-many joins use it to build the foreign key column.
	ReverseField string

	// Owner is set on the side of a one-to-one relation holding the foreign key.
	Owner bool
}

// Property is a field of an entity: a column or a relation.
type Property struct {
	Name     string
	Column   string
	Type     ColumnType
	Relation *Relation
}

func (p Property) IsRelation() bool {
	return p.Relation != nil
}

// Entity is a persisted type.
type Entity struct {
	Name      string
	Table     string
	IDColumns []string
}

// SchemaResolver provides the metadata the SQL compiler needs. Property
// returns an error matching ErrUnknownProperty for names the entity does
// not have.
type SchemaResolver interface {
	Entity(name string) (Entity, error)
	Property(entity, name string) (Property, error)
}

// PropertyLister is implemented by resolvers that can enumerate the
// properties of an entity. Projections that only exclude fields need it.
type PropertyLister interface {
	Properties(entity string) ([]Property, error)
}
