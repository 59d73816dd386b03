package query

func installAccumulator(r *Registry) {
	for _, kind := range []OperatorKind{OpSum, OpAvg, OpMin, OpMax} {
		r.mustInstall(kind, singleTerm(numericTerm), expressionScope)
	}
	r.mustInstall(OpCount, validateCount, expressionScope)
}

func validateCount(it *Interpreter, op *OperatorNode, definition any) (Node, error) {
	if !isScalar(definition) {
		return nil, malformed(op, definition, "expects a scalar or a field reference")
	}
	return it.Operand(op, definition)
}
