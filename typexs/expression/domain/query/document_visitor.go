package query

// DocumentVisitor renders a tree back into a Document. Implicit equality
// comes out as explicit $eq, projection flags as 1 and 0.
type DocumentVisitor struct{}

func (v DocumentVisitor) VisitArray(n *ArrayNode) (Step, error) {
	return Continue(nil), nil
}

func (v DocumentVisitor) LeaveArray(_ any, results []any, n *ArrayNode) (any, error) {
	return results, nil
}

func (v DocumentVisitor) VisitObject(n *ObjectNode) (Step, error) {
	return Continue(nil), nil
}

func (v DocumentVisitor) LeaveObject(_ any, results []any, n *ObjectNode) (any, error) {
	doc := make(Document, 0, len(results))
	for i, child := range n.Children() {
		value := results[i]
		// {name: "x", $or: [...]}: the operator already renders its own key.
		if child.Kind() == KindOperator && isOperatorKey(child.Key()) {
			if rendered, ok := value.(Document); ok && len(rendered) == 1 {
				doc = append(doc, rendered[0])
				continue
			}
		}
		doc = append(doc, Entry{Key: child.Key(), Value: value})
	}
	return doc, nil
}

func (v DocumentVisitor) VisitOperator(n *OperatorNode) (Step, error) {
	return Continue(nil), nil
}

func (v DocumentVisitor) LeaveOperator(_ any, result any, n *OperatorNode) (any, error) {
	return D(operatorPrefix+n.Name(), result), nil
}

func (v DocumentVisitor) OnValue(n *ValueNode) (any, error) {
	return n.Value(), nil
}

func (v DocumentVisitor) OnFieldRef(n *FieldRefNode) (any, error) {
	if n.Context().Is(NumberProjectSupport) && n.Ref() == n.Key() {
		return 1, nil
	}
	return operatorPrefix + n.Ref(), nil
}

func (v DocumentVisitor) OnUnset(n *UnsetNode) (any, error) {
	return 0, nil
}

// ToDocument renders n with a DocumentVisitor.
func ToDocument(n Node) (any, error) {
	return Walk(DocumentVisitor{}, n)
}
