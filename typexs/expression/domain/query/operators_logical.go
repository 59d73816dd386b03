package query

func installLogical(r *Registry) {
	r.mustInstall(OpAnd, validateJunction, nil)
	r.mustInstall(OpOr, validateJunction, nil)
	r.mustInstall(OpNor, validateJunction, nil)
	r.mustInstall(OpNot, validateNegation, nil)
}

func validateJunction(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	items, ok := arrayOf(definition)
	if !ok {
		return nil, malformed(op, definition, "expects an array of conditions")
	}
	if len(items) == 0 {
		return nil, malformed(op, definition, "requires at least one condition")
	}
	for i, item := range items {
		if _, ok := documentOf(item); !ok {
			return nil, malformed(op, definition, "condition %d is not an object", i)
		}
	}
	return it.Operand(op, items)
}

func validateNegation(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	if _, ok := documentOf(definition); !ok {
		return nil, malformed(op, definition, "expects a condition object")
	}
	return it.Operand(op, definition)
}
