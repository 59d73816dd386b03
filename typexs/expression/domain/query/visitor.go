package query

// Step is returned by the Visit* hooks of a Visitor. Continue walks the
// children and hands the seed to the matching Leave* hook; Abort skips both
// and makes its result the result of the node.
type Step struct {
	seed   any
	result any
	abort  bool
}

func Continue(seed any) Step {
	return Step{seed: seed}
}

func Abort(result any) Step {
	return Step{result: result, abort: true}
}

func (s Step) Aborted() bool {
	return s.abort
}

// Visitor derives an artifact from an expression tree. Children are visited
// depth-first in structural order; their results are passed to Leave* in the
// same order.
type Visitor interface {
	VisitArray(n *ArrayNode) (Step, error)
	LeaveArray(seed any, results []any, n *ArrayNode) (any, error)
	VisitObject(n *ObjectNode) (Step, error)
	LeaveObject(seed any, results []any, n *ObjectNode) (any, error)
	VisitOperator(n *OperatorNode) (Step, error)
	LeaveOperator(seed any, result any, n *OperatorNode) (any, error)
	OnValue(n *ValueNode) (any, error)
	OnFieldRef(n *FieldRefNode) (any, error)
	OnUnset(n *UnsetNode) (any, error)
}

// Walk runs v over the tree rooted at n.
func Walk(v Visitor, n Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	return n.Accept(v)
}
