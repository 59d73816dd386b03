package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// columnRef is a resolved column. prop is nil for columns without schema
// metadata: foreign keys and names used verbatim in having mode.
type columnRef struct {
	sql  string
	prop *Property
}

type joinSet struct {
	list  []Join
	index map[string]int
}

func newJoinSet() *joinSet {
	return &joinSet{index: make(map[string]int)}
}

func (s *joinSet) all() []Join {
	return append([]Join(nil), s.list...)
}

// column resolves a dotted field path to a column reference.
func (b *Builder) column(path string) (columnRef, error) {
	if ref, ok := b.outputs[path]; ok {
		return ref, nil
	}
	if b.mode == Having {
		return columnRef{sql: path}, nil
	}
	return b.lookupKeys(path)
}

// lookupKeys walks the segments of path from the root entity, joining every
// relation it crosses.
func (b *Builder) lookupKeys(path string) (columnRef, error) {
	entity := b.entity
	alias := b.rootAlias
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		last := i == len(segments)-1
		p, err := b.resolver.Property(entity, segment)
		if errors.Is(err, ErrUnknownProperty) {
			return columnRef{}, &UnknownPropertyError{Entity: b.entity, Path: path}
		}
		if err != nil {
			return columnRef{}, err
		}

		if !p.IsRelation() {
			if !last {
				return columnRef{}, &UnknownPropertyError{Entity: b.entity, Path: path}
			}
			return columnRef{sql: alias + "." + p.Column, prop: &p}, nil
		}

		if last && holdsForeignKey(p.Relation) {
			target, err := b.resolver.Entity(p.Relation.Target)
			if err != nil {
				return columnRef{}, err
			}
			id, err := singleID(entity, p, target.IDColumns)
			if err != nil {
				return columnRef{}, err
			}
			return columnRef{sql: alias + "." + p.Name + capitalize(id)}, nil
		}

		j, target, err := b.join(alias, entity, p)
		if err != nil {
			return columnRef{}, err
		}
		alias, entity = j.Alias, target.Name
		if last {
			id, err := singleID(entity, p, target.IDColumns)
			if err != nil {
				return columnRef{}, err
			}
			return columnRef{sql: alias + "." + id}, nil
		}
	}
	return columnRef{}, &UnknownPropertyError{Entity: b.entity, Path: path}
}

// join returns the join reaching p from the table aliased sourceAlias,
// creating it on first use.
func (b *Builder) join(sourceAlias, sourceName string, p Property) (Join, Entity, error) {
	target, err := b.resolver.Entity(p.Relation.Target)
	if err != nil {
		return Join{}, Entity{}, err
	}
	key := sourceAlias + "." + p.Name
	if i, ok := b.joins.index[key]; ok {
		return b.joins.list[i], target, nil
	}
	source, err := b.resolver.Entity(sourceName)
	if err != nil {
		return Join{}, Entity{}, err
	}

	var on func(alias string) string
	switch rel := p.Relation; {
	case rel.Cardinality == OneToMany:
		sourceID, err := singleID(sourceName, p, source.IDColumns)
		if err != nil {
			return Join{}, Entity{}, err
		}
		reverse := rel.ReverseField
		if reverse == "" {
			reverse = strcase.ToLowerCamel(inflection.Singular(source.Name))
		}
		on = func(alias string) string {
			return fmt.Sprintf("%s.%s = %s.%s", alias, reverse+capitalize(sourceID), sourceAlias, sourceID)
		}
	case holdsForeignKey(rel):
		targetID, err := singleID(sourceName, p, target.IDColumns)
		if err != nil {
			return Join{}, Entity{}, err
		}
		on = func(alias string) string {
			return fmt.Sprintf("%s.%s = %s.%s", alias, targetID, sourceAlias, p.Name+capitalize(targetID))
		}
	case rel.Cardinality == OneToOne:
		return Join{}, Entity{}, &UnsupportedRelationShapeError{
			Entity: sourceName, Property: p.Name, Reason: "the foreign key is held by the other side",
		}
	default:
		return Join{}, Entity{}, &UnsupportedRelationShapeError{
			Entity: sourceName, Property: p.Name, Reason: rel.Cardinality.String() + " relations are not joined",
		}
	}

	alias := strcase.ToSnake(target.Name) + "_" + strconv.Itoa(b.seq.nextJoin())
	j := Join{Alias: alias, Table: target.Table, On: on(alias)}
	b.joins.index[key] = len(b.joins.list)
	b.joins.list = append(b.joins.list, j)
	return j, target, nil
}

func holdsForeignKey(rel *Relation) bool {
	return rel.Cardinality == ManyToOne || (rel.Cardinality == OneToOne && rel.Owner)
}

func singleID(entity string, p Property, ids []string) (string, error) {
	if len(ids) != 1 {
		return "", &UnsupportedRelationShapeError{
			Entity: entity, Property: p.Name, Reason: fmt.Sprintf("expected a single id column, got %d", len(ids)),
		}
	}
	return ids[0], nil
}

func capitalize(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}
