package query

type NodeKind int

const (
	KindValue NodeKind = iota + 1
	KindFieldRef
	KindUnset
	KindObject
	KindArray
	KindOperator
)

func (k NodeKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFieldRef:
		return "field"
	case KindUnset:
		return "unset"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Node is an element of a parsed expression tree. Trees are built once by the
// Interpreter and never modified afterwards.
type Node interface {
	Kind() NodeKind
	// Key is the field name or array index the node occupies in its parent.
	Key() string
	Path() Path
	Context() Context
	// FieldPath is the dotted field the node applies to, if any.
	FieldPath() string
	Accept(Visitor) (any, error)
	frame() Frame
}

type base struct {
	key  string
	path Path
	ctx  Context
}

func (b base) Key() string {
	return b.key
}

func (b base) Path() Path {
	return b.path
}

func (b base) Context() Context {
	return b.ctx
}

type ValueNode struct {
	base
	value any
}

func (n *ValueNode) Kind() NodeKind {
	return KindValue
}

func (n *ValueNode) Value() any {
	return n.value
}

func (n *ValueNode) FieldPath() string {
	return fieldPath(n.frame(), n.path)
}

func (n *ValueNode) Accept(v Visitor) (any, error) {
	return v.OnValue(n)
}

func (n *ValueNode) frame() Frame {
	return Frame{Kind: KindValue, Key: n.key}
}

// FieldRefNode reads a field instead of carrying a literal.
type FieldRefNode struct {
	base
	ref string
}

func (n *FieldRefNode) Kind() NodeKind {
	return KindFieldRef
}

func (n *FieldRefNode) Ref() string {
	return n.ref
}

func (n *FieldRefNode) FieldPath() string {
	return fieldPath(n.frame(), n.path)
}

func (n *FieldRefNode) Accept(v Visitor) (any, error) {
	return v.OnFieldRef(n)
}

func (n *FieldRefNode) frame() Frame {
	return Frame{Kind: KindFieldRef, Key: n.key}
}

// UnsetNode marks a field excluded by a projection.
type UnsetNode struct {
	base
}

func (n *UnsetNode) Kind() NodeKind {
	return KindUnset
}

func (n *UnsetNode) FieldPath() string {
	return fieldPath(n.frame(), n.path)
}

func (n *UnsetNode) Accept(v Visitor) (any, error) {
	return v.OnUnset(n)
}

func (n *UnsetNode) frame() Frame {
	return Frame{Kind: KindUnset, Key: n.key}
}

type ObjectNode struct {
	base
	children []Node
}

func (n *ObjectNode) Kind() NodeKind {
	return KindObject
}

func (n *ObjectNode) Children() []Node {
	return n.children
}

func (n *ObjectNode) Keys() []string {
	keys := make([]string, len(n.children))
	for i, c := range n.children {
		keys[i] = c.Key()
	}
	return keys
}

func (n *ObjectNode) Get(key string) (Node, bool) {
	for _, c := range n.children {
		if c.Key() == key {
			return c, true
		}
	}
	return nil, false
}

func (n *ObjectNode) Len() int {
	return len(n.children)
}

func (n *ObjectNode) FieldPath() string {
	return fieldPath(n.frame(), n.path)
}

func (n *ObjectNode) Accept(v Visitor) (any, error) {
	step, err := v.VisitObject(n)
	if err != nil {
		return nil, err
	}
	if step.abort {
		return step.result, nil
	}
	results, err := acceptAll(v, n.children)
	if err != nil {
		return nil, err
	}
	return v.LeaveObject(step.seed, results, n)
}

func (n *ObjectNode) frame() Frame {
	return Frame{Kind: KindObject, Key: n.key}
}

type ArrayNode struct {
	base
	items []Node
}

func (n *ArrayNode) Kind() NodeKind {
	return KindArray
}

func (n *ArrayNode) Items() []Node {
	return n.items
}

func (n *ArrayNode) Len() int {
	return len(n.items)
}

func (n *ArrayNode) FieldPath() string {
	return fieldPath(n.frame(), n.path)
}

func (n *ArrayNode) Accept(v Visitor) (any, error) {
	step, err := v.VisitArray(n)
	if err != nil {
		return nil, err
	}
	if step.abort {
		return step.result, nil
	}
	results, err := acceptAll(v, n.items)
	if err != nil {
		return nil, err
	}
	return v.LeaveArray(step.seed, results, n)
}

func (n *ArrayNode) frame() Frame {
	return Frame{Kind: KindArray, Key: n.key}
}

// OperatorNode is a $-named node with a single operand.
type OperatorNode struct {
	base
	kind    OperatorKind
	operand Node
}

func (n *OperatorNode) Kind() NodeKind {
	return KindOperator
}

func (n *OperatorNode) Operator() OperatorKind {
	return n.kind
}

func (n *OperatorNode) Name() string {
	return n.kind.String()
}

func (n *OperatorNode) Operand() Node {
	return n.operand
}

func (n *OperatorNode) FieldPath() string {
	return fieldPath(n.frame(), n.path)
}

func (n *OperatorNode) Accept(v Visitor) (any, error) {
	step, err := v.VisitOperator(n)
	if err != nil {
		return nil, err
	}
	if step.abort {
		return step.result, nil
	}
	var result any
	if n.operand != nil {
		result, err = n.operand.Accept(v)
		if err != nil {
			return nil, err
		}
	}
	return v.LeaveOperator(step.seed, result, n)
}

func (n *OperatorNode) frame() Frame {
	return Frame{Kind: KindOperator, Operator: n.kind, Key: n.key}
}

func acceptAll(v Visitor, nodes []Node) ([]any, error) {
	results := make([]any, len(nodes))
	for i, c := range nodes {
		r, err := c.Accept(v)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}
