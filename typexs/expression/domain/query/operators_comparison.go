package query

import (
	"regexp"
	"strings"
)

func installComparison(r *Registry) {
	for _, kind := range []OperatorKind{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe} {
		r.mustInstall(kind, validateComparand, expressionScope)
	}
	r.mustInstall(OpLike, validateLike, expressionScope)
	r.mustInstall(OpIn, validateMembership, expressionScope)
	r.mustInstall(OpNin, validateMembership, expressionScope)
	r.mustInstall(OpIsNull, validateNullCheck, expressionScope)
	r.mustInstall(OpIsNotNull, validateNullCheck, expressionScope)
	r.mustInstall(OpRegex, validateRegex, expressionScope)
}

// validateComparand accepts a scalar, a field reference or an arithmetic,
// string or date expression.
func validateComparand(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	if _, ok := documentOf(definition); ok {
		if !isOperatorDocument(definition) {
			return nil, malformed(op, definition, "expects a scalar, a field reference or an expression")
		}
		return expressionOperand(it, op, definition)
	}
	if !isScalar(definition) {
		return nil, malformed(op, definition, "does not accept an array")
	}
	return it.Operand(op, definition)
}

func expressionOperand(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	operand, err := it.Operand(op, definition)
	if err != nil {
		return nil, err
	}
	inner, ok := operand.(*OperatorNode)
	if !ok || !inner.Operator().Family().Expression() {
		return nil, malformed(op, definition, "only arithmetic, string and date expressions are allowed as operand")
	}
	return operand, nil
}

func validateLike(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	if _, ok := definition.(string); !ok {
		return nil, malformed(op, definition, "expects a pattern string")
	}
	return it.Operand(op, definition)
}

func validateMembership(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	items, ok := arrayOf(definition)
	if !ok {
		return nil, malformed(op, definition, "expects an array of values")
	}
	for i, item := range items {
		if !isScalar(item) {
			return nil, malformed(op, definition, "element %d is not a scalar", i)
		}
	}
	return it.Operand(op, items)
}

func validateNullCheck(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	switch definition.(type) {
	case bool, nil:
		return it.Operand(op, definition)
	default:
		return nil, malformed(op, definition, "expects true, false or null")
	}
}

var regexOptions = "imsx"

// validateRegex accepts "pattern" or {pattern: "...", options: "i"}.
func validateRegex(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	pattern, options := "", ""
	switch def := definition.(type) {
	case string:
		pattern = def
	case Document:
		for _, e := range def {
			s, ok := e.Value.(string)
			if !ok {
				return nil, malformed(op, definition, "%s must be a string", e.Key)
			}
			switch e.Key {
			case "pattern":
				pattern = s
			case "options":
				options = s
			default:
				return nil, malformed(op, definition, "unexpected key %q", e.Key)
			}
		}
		if _, ok := def.Get("pattern"); !ok {
			return nil, malformed(op, definition, "pattern is required")
		}
	default:
		return nil, malformed(op, definition, "expects a pattern string or {pattern, options}")
	}
	for _, o := range options {
		if !strings.ContainsRune(regexOptions, o) {
			return nil, malformed(op, definition, "unsupported option %q", o)
		}
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, malformed(op, definition, "invalid pattern: %v", err)
	}
	return it.Operand(op, definition)
}
