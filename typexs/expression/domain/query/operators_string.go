package query

func installString(r *Registry) {
	r.mustInstall(OpConcat, operandList(1, -1, textTerm), expressionScope)
	r.mustInstall(OpToLower, singleTerm(textTerm), expressionScope)
	r.mustInstall(OpToUpper, singleTerm(textTerm), expressionScope)
}

// singleTerm validates a one-operand expression. A one-element array is
// accepted as well.
func singleTerm(check termCheck) ValidateFunc {
	return func(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
		term := definition
		if items, ok := arrayOf(definition); ok {
			if len(items) != 1 {
				return nil, malformed(op, definition, "expects exactly one operand")
			}
			term = items[0]
		}
		if reason, ok := check(term); !ok {
			return nil, malformed(op, definition, "%s", reason)
		}
		operand, err := it.Operand(op, term)
		if err != nil {
			return nil, err
		}
		return operand, checkNestedExpressions(op, definition, operand)
	}
}
