package query

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

var (
	ErrUnknownOperator   = errors.New("unknown operator")
	ErrMalformedOperator = errors.New("malformed operator definition")
	ErrDuplicateOperator = errors.New("operator already installed")
	ErrUnsupportedValue  = errors.New("unsupported value in query definition")
)

type UnknownOperatorError struct {
	Name string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator: $%s", e.Name)
}

func (e *UnknownOperatorError) Is(target error) bool {
	return target == ErrUnknownOperator
}

// MalformedOperatorDefinitionError is raised when an operator rejects the
// shape of its definition.
type MalformedOperatorDefinitionError struct {
	Operator   string
	Key        string
	Definition string
	Reason     string
}

func (e *MalformedOperatorDefinitionError) Error() string {
	return fmt.Sprintf(
		"malformed definition of $%s at %q: %s (got %s)",
		e.Operator, e.Key, e.Reason, e.Definition,
	)
}

func (e *MalformedOperatorDefinitionError) Is(target error) bool {
	return target == ErrMalformedOperator
}

func malformed(op *OperatorNode, definition any, reason string, args ...any) error {
	return &MalformedOperatorDefinitionError{
		Operator:   op.Name(),
		Key:        op.Key(),
		Definition: serialize(definition),
		Reason:     fmt.Sprintf(reason, args...),
	}
}

func serialize(definition any) string {
	data, err := json.Marshal(definition)
	if err != nil {
		return fmt.Sprintf("%v", definition)
	}
	return string(data)
}
