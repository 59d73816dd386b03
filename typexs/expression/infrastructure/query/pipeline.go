package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
)

// Select is a SELECT statement compiled from an aggregation pipeline.
// Params are referenced as :name in every clause.
type Select struct {
	Columns []string
	From    string
	Joins   []Join
	Where   string
	GroupBy []string
	Having  string
	OrderBy []string

	// Limit and Offset are omitted when zero.
	Limit  int64
	Offset int64
	Params map[string]any

	// RootAlias qualifies the columns of the queried table.
	RootAlias string
}

func (s Select) SQL() string {
	var b strings.Builder
	b.WriteString(s.body())
	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.OrderBy, ", "))
	}
	if s.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(s.Limit, 10))
	}
	if s.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.FormatInt(s.Offset, 10))
	}
	return b.String()
}

// CountSQL counts the rows the statement returns, ignoring sorting and
// paging.
func (s Select) CountSQL() string {
	return "SELECT COUNT(*) FROM (" + s.body() + ") counted"
}

func (s Select) body() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.From)
	for _, j := range s.Joins {
		b.WriteString(" ")
		b.WriteString(j.SQL())
	}
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(s.GroupBy, ", "))
	}
	if s.Having != "" {
		b.WriteString(" HAVING ")
		b.WriteString(s.Having)
	}
	return b.String()
}

// CompilePipeline compiles root into a SELECT on entity. root is either a
// pipeline (an array of stages), a single stage, or a plain condition which
// is handled like a $match stage. $match stages before a $group go to
// WHERE, later ones to HAVING.
func CompilePipeline(resolver SchemaResolver, entity string, root domainquery.Node, opts ...BuilderOption) (Select, error) {
	base := NewBuilder(resolver, entity, opts...)
	base.mode = Where
	e, err := resolver.Entity(entity)
	if err != nil {
		return Select{}, err
	}
	p := &pipeline{
		base:    base,
		entity:  e,
		outputs: map[string]columnRef{},
		sel:     Select{Params: map[string]any{}},
	}
	if err := p.compile(root); err != nil {
		return Select{}, err
	}
	return p.finish()
}

type pipeline struct {
	base    *Builder
	entity  Entity
	sel     Select
	grouped bool
	where   []*fragment
	having  []*fragment

	// outputs maps the result names of a $group or $project to their
	// expressions.
	outputs map[string]columnRef

	projected    bool
	projectNames []string
	excluded     map[string]bool
}

func (p *pipeline) compile(root domainquery.Node) error {
	switch n := root.(type) {
	case *domainquery.ArrayNode:
		for _, item := range n.Items() {
			stage, ok := item.(*domainquery.OperatorNode)
			if !ok || stage.Operator().Family() != domainquery.FamilyStage {
				return errors.Wrapf(ErrUnsupportedNode, "pipeline element %s is not a stage", item.Key())
			}
			if err := p.stage(stage); err != nil {
				return err
			}
		}
		return nil
	case *domainquery.OperatorNode:
		if n.Operator().Family() == domainquery.FamilyStage {
			return p.stage(n)
		}
	}
	return p.match(root)
}

func (p *pipeline) stage(n *domainquery.OperatorNode) error {
	switch n.Operator() {
	case domainquery.OpMatch:
		return p.match(n.Operand())
	case domainquery.OpProject:
		return p.project(n.Operand().(*domainquery.ObjectNode))
	case domainquery.OpGroup:
		return p.group(n.Operand().(*domainquery.ObjectNode))
	case domainquery.OpSort:
		return p.sort(n.Operand().(*domainquery.ObjectNode))
	case domainquery.OpSkip, domainquery.OpLimit:
		v, _ := domainquery.ToInt64(n.Operand().(*domainquery.ValueNode).Value())
		if n.Operator() == domainquery.OpSkip {
			p.sel.Offset = v
		} else {
			p.sel.Limit = v
		}
		return nil
	}
	return errors.Wrapf(ErrUnsupportedNode, "$%s is not a stage", n.Name())
}

// builder returns a fresh Builder for the current position in the
// pipeline, sharing parameter names and joins with the statement.
func (p *pipeline) builder() *Builder {
	mode := Where
	if p.grouped {
		mode = Having
	}
	b := NewBuilder(p.base.resolver, p.base.entity,
		WithMode(mode),
		WithDialect(p.base.dialect),
		WithRootAlias(p.base.rootAlias),
		withSequence(p.base.seq),
		withJoins(p.base.joins),
	)
	b.outputs = p.outputs
	return b
}

func (p *pipeline) match(n domainquery.Node) error {
	res, err := p.builder().Build(n)
	if err != nil || res.Query == "" {
		return err
	}
	f := &fragment{sql: res.Query, params: res.Params}
	if p.grouped {
		p.having = append(p.having, f)
	} else {
		p.where = append(p.where, f)
	}
	return nil
}

func (p *pipeline) project(obj *domainquery.ObjectNode) error {
	p.projected = true
	p.sel.Columns = nil
	p.projectNames = nil
	p.excluded = map[string]bool{}
	return p.projectObject(obj)
}

func (p *pipeline) projectObject(obj *domainquery.ObjectNode) error {
	b := p.builder()
	for _, child := range obj.Children() {
		name := child.FieldPath()
		var f *fragment
		var col columnRef
		var err error
		switch c := child.(type) {
		case *domainquery.UnsetNode:
			p.excluded[name] = true
			continue
		case *domainquery.ObjectNode:
			if err := p.projectObject(c); err != nil {
				return err
			}
			continue
		case *domainquery.FieldRefNode:
			ref := c.Ref()
			if ref == c.Key() {
				ref = name
			}
			col, err = b.column(ref)
			f = newFragment(col.sql)
		default:
			f, err = b.expression(child)
		}
		if err != nil {
			return err
		}
		if col.sql == "" {
			col = columnRef{sql: f.sql}
		}
		if err := p.addColumn(f, name); err != nil {
			return err
		}
		p.projectNames = append(p.projectNames, name)
		p.outputs[name] = col
	}
	return nil
}

func (p *pipeline) group(obj *domainquery.ObjectNode) error {
	b := p.builder()
	p.sel.Columns = nil
	p.sel.GroupBy = nil
	p.projected = false
	outputs := map[string]columnRef{}

	for _, child := range obj.Children() {
		if child.Key() != "_id" {
			f, err := b.expression(child)
			if err != nil {
				return err
			}
			if err := p.addColumn(f, child.Key()); err != nil {
				return err
			}
			outputs[child.Key()] = columnRef{sql: f.sql}
			continue
		}
		keys := []domainquery.Node{child}
		if id, ok := child.(*domainquery.ObjectNode); ok {
			keys = id.Children()
		} else if child.Kind() == domainquery.KindValue {
			continue
		}
		for _, key := range keys {
			name := "_id"
			if key != child {
				name = key.Key()
			}
			f, err := b.expression(key)
			if err != nil {
				return err
			}
			if err := p.addColumn(f, name); err != nil {
				return err
			}
			outputs[name] = columnRef{sql: f.sql}
			if key != child {
				outputs["_id."+name] = columnRef{sql: f.sql}
			}
			p.sel.GroupBy = append(p.sel.GroupBy, f.sql)
		}
	}
	p.outputs = outputs
	p.grouped = true
	return nil
}

func (p *pipeline) sort(obj *domainquery.ObjectNode) error {
	b := p.builder()
	for _, child := range obj.Children() {
		if nested, ok := child.(*domainquery.ObjectNode); ok {
			if err := p.sort(nested); err != nil {
				return err
			}
			continue
		}
		v, ok := child.(*domainquery.ValueNode)
		if !ok {
			return errors.Wrapf(ErrUnsupportedNode, "sort direction of %q", child.FieldPath())
		}
		asc, _ := domainquery.SortDirection(v.Value())
		col, err := b.column(child.FieldPath())
		if err != nil {
			return err
		}
		direction := "DESC"
		if asc {
			direction = "ASC"
		}
		p.sel.OrderBy = append(p.sel.OrderBy, col.sql+" "+direction)
	}
	return nil
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (p *pipeline) addColumn(f *fragment, name string) error {
	if err := mergeParams(p.sel.Params, f.params); err != nil {
		return err
	}
	alias := name
	if !plainIdentifier.MatchString(alias) {
		alias = p.base.dialect.QuoteIdentifier(alias)
	}
	p.sel.Columns = append(p.sel.Columns, f.sql+" AS "+alias)
	return nil
}

func (p *pipeline) finish() (Select, error) {
	if !p.grouped && p.projected && len(p.projectNames) == 0 {
		if err := p.defaultColumns(); err != nil {
			return Select{}, err
		}
	}
	if len(p.sel.Columns) == 0 {
		p.sel.Columns = []string{p.base.rootAlias + ".*"}
	}
	where, err := combine("AND", p.where)
	if err != nil {
		return Select{}, err
	}
	if where != nil {
		p.sel.Where = where.sql
		if err := mergeParams(p.sel.Params, where.params); err != nil {
			return Select{}, err
		}
	}
	having, err := combine("AND", p.having)
	if err != nil {
		return Select{}, err
	}
	if having != nil {
		p.sel.Having = having.sql
		if err := mergeParams(p.sel.Params, having.params); err != nil {
			return Select{}, err
		}
	}
	p.sel.From = p.entity.Table
	p.sel.RootAlias = p.base.rootAlias
	if p.base.rootAlias != p.entity.Table {
		p.sel.From += " " + p.base.rootAlias
	}
	p.sel.Joins = p.base.joins.all()
	return p.sel, nil
}

// defaultColumns selects every scalar property not excluded by $project.
func (p *pipeline) defaultColumns() error {
	lister, ok := p.base.resolver.(PropertyLister)
	if !ok {
		return errors.Wrap(ErrUnsupportedNode, "a projection with exclusions only needs a schema that lists properties")
	}
	props, err := lister.Properties(p.entity.Name)
	if err != nil {
		return err
	}
	for _, prop := range props {
		if prop.IsRelation() || p.excluded[prop.Name] {
			continue
		}
		if err := p.addColumn(newFragment(p.base.rootAlias+"."+prop.Column), prop.Name); err != nil {
			return err
		}
	}
	return nil
}
