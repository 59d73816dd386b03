package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

var comparisonOperators = map[domainquery.OperatorKind]string{
	domainquery.OpEq: "=",
	domainquery.OpNe: "<>",
	domainquery.OpLt: "<",
	domainquery.OpLe: "<=",
	domainquery.OpGt: ">",
	domainquery.OpGe: ">=",
}

var arithmeticOperators = map[domainquery.OperatorKind]string{
	domainquery.OpAdd:      "+",
	domainquery.OpSubtract: "-",
	domainquery.OpMultiply: "*",
	domainquery.OpDivide:   "/",
	domainquery.OpMod:      "%",
}

var accumulatorFunctions = map[domainquery.OperatorKind]string{
	domainquery.OpSum: "SUM",
	domainquery.OpAvg: "AVG",
	domainquery.OpMin: "MIN",
	domainquery.OpMax: "MAX",
}

func (b *Builder) comparison(n *domainquery.OperatorNode) (*fragment, error) {
	field := n.FieldPath()
	if field == "" {
		return nil, errors.Wrapf(ErrUnsupportedNode, "$%s is not applied to a field", n.Name())
	}
	left, err := b.column(field)
	if err != nil {
		return nil, err
	}
	operand := n.Operand()

	switch n.Operator() {
	case domainquery.OpEq, domainquery.OpNe, domainquery.OpLt, domainquery.OpLe, domainquery.OpGt, domainquery.OpGe:
		if v, ok := operand.(*domainquery.ValueNode); ok && v.Value() == nil {
			switch n.Operator() {
			case domainquery.OpEq:
				return newFragment(left.sql + " IS NULL"), nil
			case domainquery.OpNe:
				return newFragment(left.sql + " IS NOT NULL"), nil
			}
		}
		right, err := b.operand(operand, left)
		if err != nil {
			return nil, err
		}
		right.sql = fmt.Sprintf("%s %s %s", left.sql, comparisonOperators[n.Operator()], right.sql)
		return right, nil

	case domainquery.OpLike:
		pattern, _ := operand.(*domainquery.ValueNode).Value().(string)
		f := newFragment("")
		name := b.bind(f, strings.ReplaceAll(pattern, "*", "%"))
		f.sql = fmt.Sprintf("%s LIKE :%s", left.sql, name)
		return f, nil

	case domainquery.OpIn, domainquery.OpNin:
		items := operand.(*domainquery.ArrayNode).Items()
		return b.membership(left, items, n.Operator() == domainquery.OpNin)

	case domainquery.OpIsNull, domainquery.OpIsNotNull:
		null := true
		if v, ok := operand.(*domainquery.ValueNode).Value().(bool); ok {
			null = v
		}
		if n.Operator() == domainquery.OpIsNotNull {
			null = !null
		}
		if null {
			return newFragment(left.sql + " IS NULL"), nil
		}
		return newFragment(left.sql + " IS NOT NULL"), nil

	case domainquery.OpRegex:
		return b.regex(left, operand)
	}
	return nil, errors.Wrapf(ErrUnsupportedNode, "$%s", n.Name())
}

func (b *Builder) regex(left columnRef, operand domainquery.Node) (*fragment, error) {
	var pattern, options string
	switch v := operand.(type) {
	case *domainquery.ValueNode:
		pattern, _ = v.Value().(string)
	case *domainquery.ObjectNode:
		if p, ok := v.Get("pattern"); ok {
			pattern, _ = p.(*domainquery.ValueNode).Value().(string)
		}
		if o, ok := v.Get("options"); ok {
			options, _ = o.(*domainquery.ValueNode).Value().(string)
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedNode, "regex operand %s", operand.Kind())
	}
	name := b.seq.nextParam()
	sql, embedded, err := b.dialect.Regex(left.sql, ":"+name, options)
	if err != nil {
		return nil, err
	}
	if embedded != "" {
		pattern = "(?" + embedded + ")" + pattern
	}
	f := newFragment(sql)
	f.params[name] = pattern
	return f, nil
}

func (b *Builder) membership(left columnRef, items []domainquery.Node, negate bool) (*fragment, error) {
	if len(items) == 0 {
		if negate {
			return newFragment("1 = 1"), nil
		}
		return newFragment("1 = 0"), nil
	}
	f := newFragment("")
	markers := make([]string, len(items))
	for i, item := range items {
		v, ok := item.(*domainquery.ValueNode)
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedNode, "list element %s", item.Kind())
		}
		value, err := b.coerce(v.Value(), left)
		if err != nil {
			return nil, err
		}
		markers[i] = ":" + b.bind(f, value)
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	f.sql = fmt.Sprintf("%s %s (%s)", left.sql, op, strings.Join(markers, ", "))
	return f, nil
}

// operand compiles the right side of a comparison against left.
func (b *Builder) operand(n domainquery.Node, left columnRef) (*fragment, error) {
	if v, ok := n.(*domainquery.ValueNode); ok {
		value, err := b.coerce(v.Value(), left)
		if err != nil {
			return nil, err
		}
		f := newFragment("")
		f.sql = ":" + b.bind(f, value)
		return f, nil
	}
	return b.expression(n)
}

// expression compiles a value producing node: literals, field references,
// arithmetic, string, date and accumulator operators.
func (b *Builder) expression(n domainquery.Node) (*fragment, error) {
	switch v := n.(type) {
	case *domainquery.ValueNode:
		f := newFragment("")
		f.sql = ":" + b.bind(f, b.coerceLiteral(v.Value()))
		return f, nil
	case *domainquery.FieldRefNode:
		ref, err := b.column(v.Ref())
		if err != nil {
			return nil, err
		}
		return newFragment(ref.sql), nil
	case *domainquery.OperatorNode:
		return b.operatorExpression(v)
	default:
		return nil, errors.Wrapf(ErrUnsupportedNode, "%s in an expression", n.Kind())
	}
}

func (b *Builder) operatorExpression(n *domainquery.OperatorNode) (*fragment, error) {
	kind := n.Operator()
	switch kind.Family() {
	case domainquery.FamilyArithmetic:
		terms, err := b.terms(n.Operand())
		if err != nil {
			return nil, err
		}
		terms.sql = "(" + strings.Join(terms.parts, " "+arithmeticOperators[kind]+" ") + ")"
		return terms.fragment, nil

	case domainquery.FamilyString:
		terms, err := b.terms(n.Operand())
		if err != nil {
			return nil, err
		}
		switch kind {
		case domainquery.OpConcat:
			terms.sql = b.dialect.Concat(terms.parts)
		case domainquery.OpToLower:
			terms.sql = "LOWER(" + terms.parts[0] + ")"
		default:
			terms.sql = "UPPER(" + terms.parts[0] + ")"
		}
		return terms.fragment, nil

	case domainquery.FamilyDate:
		if kind == domainquery.OpDateTrunc {
			obj := n.Operand().(*domainquery.ObjectNode)
			date, _ := obj.Get("date")
			unit, _ := obj.Get("unit")
			f, err := b.expression(date)
			if err != nil {
				return nil, err
			}
			name, _ := unit.(*domainquery.ValueNode).Value().(string)
			f.sql = b.dialect.DateTrunc(name, f.sql)
			return f, nil
		}
		f, err := b.expression(n.Operand())
		if err != nil {
			return nil, err
		}
		f.sql = b.dialect.DatePart(kind, f.sql)
		return f, nil

	case domainquery.FamilyAccumulator:
		if kind == domainquery.OpCount {
			if _, ok := n.Operand().(*domainquery.ValueNode); ok {
				return newFragment("COUNT(*)"), nil
			}
			f, err := b.expression(n.Operand())
			if err != nil {
				return nil, err
			}
			f.sql = "COUNT(" + f.sql + ")"
			return f, nil
		}
		f, err := b.expression(n.Operand())
		if err != nil {
			return nil, err
		}
		f.sql = accumulatorFunctions[kind] + "(" + f.sql + ")"
		return f, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedNode, "$%s is not an expression", n.Name())
}

type termList struct {
	*fragment
	parts []string
}

func (b *Builder) terms(operand domainquery.Node) (termList, error) {
	nodes := []domainquery.Node{operand}
	if arr, ok := operand.(*domainquery.ArrayNode); ok {
		nodes = arr.Items()
	}
	out := termList{fragment: newFragment(""), parts: make([]string, len(nodes))}
	for i, node := range nodes {
		f, err := b.expression(node)
		if err != nil {
			return termList{}, err
		}
		if err := mergeParams(out.params, f.params); err != nil {
			return termList{}, err
		}
		out.parts[i] = f.sql
	}
	return out, nil
}

// bind allocates a parameter for value in f and returns its name.
func (b *Builder) bind(f *fragment, value any) string {
	name := b.seq.nextParam()
	f.params[name] = value
	return name
}

func (b *Builder) coerce(value any, left columnRef) (any, error) {
	if b.mode == Where && left.prop != nil {
		return coerceColumn(value, left.prop.Type)
	}
	return b.coerceLiteral(value), nil
}

func (b *Builder) coerceLiteral(value any) any {
	if b.mode == Having {
		return coerceFree(value)
	}
	return value
}
