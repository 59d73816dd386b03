package query

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProperty          = errors.New("unknown property")
	ErrUnknownEntity            = errors.New("unknown entity")
	ErrUnsupportedRelationShape = errors.New("unsupported relation shape")
	ErrParameterCollision       = errors.New("parameter collision")
	ErrBuilderUsed              = errors.New("builder has already been used")
	ErrUnsupportedNode          = errors.New("node cannot be compiled here")
	ErrInvalidValue             = errors.New("value does not fit the column type")
)

// UnknownPropertyError is returned when a segment of a dotted field path
// does not resolve to a column or a relation.
type UnknownPropertyError struct {
	Entity string
	Path   string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %q of %s", e.Path, e.Entity)
}

func (e *UnknownPropertyError) Is(target error) bool {
	return target == ErrUnknownProperty
}

// UnsupportedRelationShapeError is returned for relations a join can not be
// derived from: composite keys, many-to-many and the inverse side of
// one-to-one.
type UnsupportedRelationShapeError struct {
	Entity   string
	Property string
	Reason   string
}

func (e *UnsupportedRelationShapeError) Error() string {
	return fmt.Sprintf("cannot join %s.%s: %s", e.Entity, e.Property, e.Reason)
}

func (e *UnsupportedRelationShapeError) Is(target error) bool {
	return target == ErrUnsupportedRelationShape
}

// ParameterCollisionError signals two fragments binding the same parameter
// name. Names are allocated from one counter, so this is a programming error.
type ParameterCollisionError struct {
	Name string
}

func (e *ParameterCollisionError) Error() string {
	return fmt.Sprintf("parameter %q bound twice", e.Name)
}

func (e *ParameterCollisionError) Is(target error) bool {
	return target == ErrParameterCollision
}
