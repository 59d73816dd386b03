package query

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

// Mode selects the clause a Builder compiles for.
type Mode int

const (
	// Where resolves field paths against the schema, joining relations.
	Where Mode = iota + 1
	// Having uses field names verbatim, as they name aggregate outputs.
	Having
)

func (m Mode) String() string {
	switch m {
	case Where:
		return "where"
	case Having:
		return "having"
	default:
		return "unknown"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "where":
		return Where, nil
	case "having":
		return Having, nil
	default:
		return 0, errors.Errorf("unknown mode %q", s)
	}
}

// Join is a LEFT JOIN the caller must add to its FROM clause.
type Join struct {
	Alias string
	Table string
	On    string
}

func (j Join) SQL() string {
	return fmt.Sprintf("LEFT JOIN %s %s ON %s", j.Table, j.Alias, j.On)
}

// Result is a compiled predicate. Query references Params as :name and is
// empty when the tree holds no condition.
type Result struct {
	Query  string
	Params map[string]any
	Joins  []Join
}

type BuilderOption func(*Builder)

func WithMode(mode Mode) BuilderOption {
	return func(b *Builder) {
		b.mode = mode
	}
}

func WithDialect(dialect Dialect) BuilderOption {
	return func(b *Builder) {
		b.dialect = dialect
	}
}

// WithRootAlias sets the alias of the queried table. It defaults to the
// snake cased entity name.
func WithRootAlias(alias string) BuilderOption {
	return func(b *Builder) {
		b.rootAlias = alias
	}
}

func withSequence(seq *sequence) BuilderOption {
	return func(b *Builder) {
		b.seq = seq
	}
}

func withJoins(joins *joinSet) BuilderOption {
	return func(b *Builder) {
		b.joins = joins
	}
}

// Builder compiles an expression tree into a parameterized WHERE or HAVING
// predicate. A Builder compiles a single tree; create a new one per query.
type Builder struct {
	resolver  SchemaResolver
	entity    string
	mode      Mode
	dialect   Dialect
	rootAlias string
	seq       *sequence
	joins     *joinSet

	// outputs maps result names of a preceding $group or $project to their
	// expressions. They take precedence over schema properties.
	outputs map[string]columnRef
	used    bool
}

func NewBuilder(resolver SchemaResolver, entity string, opts ...BuilderOption) *Builder {
	b := &Builder{
		resolver: resolver,
		entity:   entity,
		mode:     Where,
		dialect:  Postgres,
	}
	for i := range opts {
		opts[i](b)
	}
	if b.rootAlias == "" {
		b.rootAlias = strcase.ToSnake(entity)
	}
	if b.seq == nil {
		b.seq = &sequence{}
	}
	if b.joins == nil {
		b.joins = newJoinSet()
	}
	return b
}

func (b *Builder) Mode() Mode {
	return b.mode
}

func (b *Builder) RootAlias() string {
	return b.rootAlias
}

// Build compiles root.
func (b *Builder) Build(root domainquery.Node) (Result, error) {
	if b.used {
		return Result{}, ErrBuilderUsed
	}
	b.used = true

	out, err := domainquery.Walk(b, root)
	if err != nil {
		return Result{}, err
	}
	f, err := combine("AND", flatten(out))
	if err != nil {
		return Result{}, err
	}
	result := Result{Params: map[string]any{}, Joins: b.joins.all()}
	if f != nil {
		result.Query = f.sql
		result.Params = f.params
	}
	return result, nil
}

// fragment is a piece of SQL with the parameters it binds.
type fragment struct {
	sql    string
	params map[string]any
}

func newFragment(sql string) *fragment {
	return &fragment{sql: sql, params: map[string]any{}}
}

// fragments is the result of an array of conditions.
type fragments []*fragment

func flatten(results ...any) []*fragment {
	var out []*fragment
	for _, r := range results {
		switch v := r.(type) {
		case *fragment:
			if v != nil {
				out = append(out, v)
			}
		case fragments:
			out = append(out, flatten(anySlice(v)...)...)
		case []any:
			out = append(out, flatten(v...)...)
		}
	}
	return out
}

func anySlice(fs fragments) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

// combine joins items with op, parenthesizing each when there is more than
// one.
func combine(op string, items []*fragment) (*fragment, error) {
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	}
	out := newFragment("")
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = "(" + item.sql + ")"
		if err := mergeParams(out.params, item.params); err != nil {
			return nil, err
		}
	}
	out.sql = strings.Join(parts, " "+op+" ")
	return out, nil
}

func (b *Builder) VisitArray(n *domainquery.ArrayNode) (domainquery.Step, error) {
	parent, ok := n.Path().Parent()
	if ok && parent.Kind == domainquery.KindObject && allValues(n.Items()) {
		left, err := b.column(n.FieldPath())
		if err != nil {
			return domainquery.Step{}, err
		}
		f, err := b.membership(left, n.Items(), false)
		return domainquery.Abort(f), err
	}
	return domainquery.Continue(nil), nil
}

func (b *Builder) LeaveArray(_ any, results []any, _ *domainquery.ArrayNode) (any, error) {
	return fragments(flatten(results...)), nil
}

func (b *Builder) VisitObject(*domainquery.ObjectNode) (domainquery.Step, error) {
	return domainquery.Continue(nil), nil
}

func (b *Builder) LeaveObject(_ any, results []any, _ *domainquery.ObjectNode) (any, error) {
	return combine("AND", flatten(results...))
}

func (b *Builder) VisitOperator(n *domainquery.OperatorNode) (domainquery.Step, error) {
	switch n.Operator().Family() {
	case domainquery.FamilyComparison:
		f, err := b.comparison(n)
		return domainquery.Abort(f), err
	case domainquery.FamilyLogical:
		return domainquery.Continue(nil), nil
	case domainquery.FamilyStage:
		if n.Operator() == domainquery.OpMatch {
			return domainquery.Continue(nil), nil
		}
		return domainquery.Abort(nil), nil
	default:
		return domainquery.Step{}, errors.Wrapf(ErrUnsupportedNode, "$%s is not a condition", n.Name())
	}
}

func (b *Builder) LeaveOperator(_ any, result any, n *domainquery.OperatorNode) (any, error) {
	items := flatten(result)
	switch n.Operator() {
	case domainquery.OpAnd, domainquery.OpMatch:
		return combine("AND", items)
	case domainquery.OpOr:
		return combine("OR", items)
	case domainquery.OpNor, domainquery.OpNot:
		op := "OR"
		if n.Operator() == domainquery.OpNot {
			op = "AND"
		}
		f, err := combine(op, items)
		if err != nil || f == nil {
			return nil, err
		}
		return &fragment{sql: "NOT (" + f.sql + ")", params: f.params}, nil
	default:
		return result, nil
	}
}

func (b *Builder) OnValue(n *domainquery.ValueNode) (any, error) {
	return nil, errors.Wrapf(ErrUnsupportedNode, "literal %v at %q is not a condition", n.Value(), n.Path().String())
}

func (b *Builder) OnFieldRef(n *domainquery.FieldRefNode) (any, error) {
	return nil, errors.Wrapf(ErrUnsupportedNode, "field reference $%s is not a condition", n.Ref())
}

func (b *Builder) OnUnset(n *domainquery.UnsetNode) (any, error) {
	return nil, errors.Wrapf(ErrUnsupportedNode, "exclusion of %q is not a condition", n.Key())
}

func allValues(nodes []domainquery.Node) bool {
	for _, n := range nodes {
		if n.Kind() != domainquery.KindValue {
			return false
		}
	}
	return true
}
