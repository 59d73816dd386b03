package query

import "strings"

// Frame describes one ancestor of a node.
type Frame struct {
	Kind     NodeKind
	Operator OperatorKind
	Key      string
}

// Path lists the ancestors of a node from the root down to its parent.
type Path []Frame

func (p Path) Push(f Frame) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = f
	return next
}

func (p Path) Parent() (Frame, bool) {
	if len(p) == 0 {
		return Frame{}, false
	}
	return p[len(p)-1], true
}

// Find returns the nearest ancestor satisfying pred.
func (p Path) Find(pred func(Frame) bool) (Frame, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if pred(p[i]) {
			return p[i], true
		}
	}
	return Frame{}, false
}

// Inside reports whether an operator of the given kind encloses the node.
func (p Path) Inside(kind OperatorKind) bool {
	_, ok := p.Find(func(f Frame) bool {
		return f.Kind == KindOperator && f.Operator == kind
	})
	return ok
}

func (p Path) String() string {
	var b strings.Builder
	for i, f := range p {
		if f.Key == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.Key)
	}
	return b.String()
}

// fieldPath derives the dotted field a node refers to from the keys of the
// enclosing object entries. Arrays and logical operators are transparent,
// any other operator ends the field.
func fieldPath(self Frame, path Path) string {
	var segments []string
	cur := self
	for i := len(path) - 1; i >= 0; i-- {
		parent := path[i]
		switch {
		case parent.Kind == KindObject:
			if !strings.HasPrefix(cur.Key, operatorPrefix) {
				segments = append(segments, cur.Key)
			}
		case parent.Kind == KindArray:
		case parent.Kind == KindOperator && parent.Operator.Family() == FamilyLogical:
		default:
			return joinReversed(segments)
		}
		cur = parent
	}
	return joinReversed(segments)
}

func joinReversed(segments []string) string {
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}
