package query

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const operatorPrefix = "$"

// Interpreter turns a query document into an expression tree.
type Interpreter struct {
	registry *Registry
}

// NewInterpreter creates an interpreter over registry, or over the default
// registry when registry is nil.
func NewInterpreter(registry *Registry) *Interpreter {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Interpreter{registry: registry}
}

func (it *Interpreter) Registry() *Registry {
	return it.registry
}

// Interpret builds the node for definition. The node's key is ctx.Key() and
// path lists its ancestors.
func (it *Interpreter) Interpret(definition any, path Path, ctx Context) (Node, error) {
	b := base{key: ctx.Key(), path: path, ctx: ctx}
	value, err := normalize(definition)
	if err != nil {
		return nil, errors.Wrapf(err, "%T at %q", definition, path.Push(Frame{Key: ctx.Key()}).String())
	}
	switch def := value.(type) {
	case Document:
		if len(def) == 1 && isOperatorKey(def[0].Key) {
			return it.operator(def[0].Key, def[0].Value, b)
		}
		return it.object(def, b)
	case []any:
		return it.array(def, b)
	case string:
		if ref, ok := fieldReference(def); ok {
			return &FieldRefNode{base: b, ref: ref}, nil
		}
		return &ValueNode{base: b, value: def}, nil
	default:
		return &ValueNode{base: b, value: def}, nil
	}
}

// Operand interprets the operand of op. Operators call it from their
// ValidateFunc.
func (it *Interpreter) Operand(op *OperatorNode, definition any) (Node, error) {
	return it.Interpret(definition, op.path.Push(op.frame()), op.ctx.Child(op.Name()))
}

func (it *Interpreter) operator(name string, definition any, b base) (Node, error) {
	d, ok := it.registry.Lookup(name)
	if !ok {
		return nil, &UnknownOperatorError{Name: canonicalName(name)}
	}
	op := d.create(b.key, b.path, b.ctx)
	value, err := normalize(definition)
	if err != nil {
		return nil, malformed(op, definition, "%v", err)
	}
	operand, err := d.Validate(it, op, value)
	if err != nil {
		return nil, err
	}
	op.operand = operand
	return op, nil
}

func (it *Interpreter) array(def []any, b base) (Node, error) {
	n := &ArrayNode{base: b, items: make([]Node, 0, len(def))}
	path := b.path.Push(n.frame())
	for i, item := range def {
		child, err := it.Interpret(item, path, b.ctx.Child(strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		n.items = append(n.items, child)
	}
	return n, nil
}

func (it *Interpreter) object(def Document, b base) (Node, error) {
	n := &ObjectNode{base: b, children: make([]Node, 0, len(def))}
	path := b.path.Push(n.frame())
	inProjection := path.Inside(OpProject)
	inGroup := path.Inside(OpGroup)
	skipping := path.Inside(OpSort)

	for _, e := range def {
		k, v := e.Key, e.Value
		ctx := b.ctx.Child(k)
		cb := base{key: k, path: path, ctx: ctx}

		var child Node
		var err error
		switch {
		case isOperatorKey(k):
			child, err = it.operator(k, v, cb)
		case inProjection || skipping || (k == "_id" && inGroup):
			if k == "_id" && inGroup {
				ctx = ctx.With(GroupID, true)
				cb.ctx = ctx
			}
			include, isFlag := projectionFlag(v)
			switch {
			case inProjection && isFlag && include:
				child = &FieldRefNode{base: cb, ref: k}
			case inProjection && isFlag:
				child = &UnsetNode{base: cb}
			default:
				child, err = it.Interpret(v, path, ctx)
			}
		case isComposite(v):
			child, err = it.Interpret(v, path, ctx)
		case ctx.Is(AutoEqualConvSupport) && !ctx.Is(GroupID):
			child, err = it.operator(OpEq.String(), v, cb)
		default:
			child, err = it.Interpret(v, path, ctx)
		}
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func isOperatorKey(key string) bool {
	return len(key) > len(operatorPrefix) && strings.HasPrefix(key, operatorPrefix)
}

func fieldReference(s string) (string, bool) {
	if !isOperatorKey(s) {
		return "", false
	}
	return s[len(operatorPrefix):], true
}

func projectionFlag(v any) (include bool, ok bool) {
	f, isNum := toFloat(v)
	if !isNum {
		return false, false
	}
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	default:
		return false, false
	}
}

// Parse interprets definition from the root with the default registry.
func Parse(definition any) (Node, error) {
	return NewInterpreter(nil).Interpret(definition, nil, RootContext())
}

// ParseJSON decodes JSON text, keeping key order, and interprets it.
func ParseJSON(data []byte) (Node, error) {
	definition, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return Parse(definition)
}
