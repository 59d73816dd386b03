package query

func installArithmetic(r *Registry) {
	r.mustInstall(OpAdd, operandList(2, -1, numericTerm), expressionScope)
	r.mustInstall(OpMultiply, operandList(2, -1, numericTerm), expressionScope)
	r.mustInstall(OpSubtract, operandList(2, 2, numericTerm), expressionScope)
	r.mustInstall(OpDivide, operandList(2, 2, numericTerm), expressionScope)
	r.mustInstall(OpMod, operandList(2, 2, numericTerm), expressionScope)
}

// termCheck reports why a single term of an expression is not acceptable.
type termCheck func(term any) (reason string, ok bool)

func numericTerm(term any) (string, bool) {
	switch t := term.(type) {
	case string:
		if _, ok := fieldReference(t); ok {
			return "", true
		}
		return "a string literal is not a number", false
	}
	if isNumber(term) || isOperatorDocument(term) {
		return "", true
	}
	return "expects numbers, field references or expressions", false
}

func textTerm(term any) (string, bool) {
	if _, ok := term.(string); ok || isOperatorDocument(term) {
		return "", true
	}
	return "expects strings, field references or expressions", false
}

// operandList validates an array of terms with min..max elements (max < 0
// means unbounded).
func operandList(min, max int, check termCheck) ValidateFunc {
	return func(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
		items, ok := arrayOf(definition)
		if !ok {
			return nil, malformed(op, definition, "expects an array of operands")
		}
		if len(items) < min || (max >= 0 && len(items) > max) {
			if min == max {
				return nil, malformed(op, definition, "expects exactly %d operands", min)
			}
			return nil, malformed(op, definition, "expects at least %d operands", min)
		}
		for i, item := range items {
			if reason, ok := check(item); !ok {
				return nil, malformed(op, definition, "operand %d: %s", i, reason)
			}
		}
		operand, err := it.Operand(op, items)
		if err != nil {
			return nil, err
		}
		return operand, checkNestedExpressions(op, definition, operand)
	}
}

// checkNestedExpressions rejects comparison or stage operators used as terms.
func checkNestedExpressions(op *OperatorNode, definition any, operand Node) error {
	var nodes []Node
	switch n := operand.(type) {
	case *ArrayNode:
		nodes = n.Items()
	default:
		nodes = []Node{n}
	}
	for _, n := range nodes {
		if inner, ok := n.(*OperatorNode); ok && !inner.Operator().Family().Expression() {
			return malformed(op, definition, "$%s cannot be used as a term", inner.Name())
		}
	}
	return nil
}
