package query

import "strings"

func installStage(r *Registry) {
	r.mustInstall(OpMatch, validateMatch, func(ctx Context) Context {
		return ctx.With(AutoEqualConvSupport, true)
	})
	r.mustInstall(OpProject, validateProject, func(ctx Context) Context {
		return ctx.With(AutoEqualConvSupport, false).With(NumberProjectSupport, true)
	})
	r.mustInstall(OpGroup, validateGroup, expressionScope)
	r.mustInstall(OpSort, validateSort, expressionScope)
	r.mustInstall(OpSkip, validateCounter(0), expressionScope)
	r.mustInstall(OpLimit, validateCounter(1), expressionScope)
}

func validateMatch(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	if _, ok := documentOf(definition); !ok {
		return nil, malformed(op, definition, "expects a condition object")
	}
	return it.Operand(op, definition)
}

func validateProject(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	doc, ok := documentOf(definition)
	if !ok || len(doc) == 0 || isOperatorDocument(doc) {
		return nil, malformed(op, definition, "expects a non-empty projection object")
	}
	return it.Operand(op, doc)
}

func validateGroup(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	doc, ok := documentOf(definition)
	if !ok || isOperatorDocument(doc) {
		return nil, malformed(op, definition, "expects a group object")
	}
	if _, ok := doc.Get("_id"); !ok {
		return nil, malformed(op, definition, "_id is required")
	}
	operand, err := it.Operand(op, doc)
	if err != nil {
		return nil, err
	}
	for _, child := range operand.(*ObjectNode).Children() {
		if child.Key() == "_id" {
			continue
		}
		acc, ok := child.(*OperatorNode)
		if !ok || acc.Operator().Family() != FamilyAccumulator {
			return nil, malformed(op, definition, "field %q must be an accumulator", child.Key())
		}
	}
	return operand, nil
}

// SortDirection interprets a $sort value; ok is false for anything other
// than 1, -1, "asc" or "desc".
func SortDirection(v any) (ascending bool, ok bool) {
	if s, isString := v.(string); isString {
		switch strings.ToLower(s) {
		case "asc":
			return true, true
		case "desc":
			return false, true
		}
		return false, false
	}
	n, isInt := ToInt64(v)
	if !isInt {
		return false, false
	}
	switch n {
	case 1:
		return true, true
	case -1:
		return false, true
	}
	return false, false
}

func validateSort(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	doc, ok := documentOf(definition)
	if !ok || len(doc) == 0 || isOperatorDocument(doc) {
		return nil, malformed(op, definition, "expects a non-empty sort object")
	}
	for _, e := range doc {
		if _, ok := SortDirection(e.Value); !ok {
			return nil, malformed(op, definition, "direction of %q must be 1, -1, \"asc\" or \"desc\"", e.Key)
		}
	}
	return it.Operand(op, doc)
}

func validateCounter(min int64) ValidateFunc {
	return func(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
		n, ok := ToInt64(definition)
		if !ok || n < min {
			return nil, malformed(op, definition, "expects an integer >= %d", min)
		}
		return it.Operand(op, definition)
	}
}
