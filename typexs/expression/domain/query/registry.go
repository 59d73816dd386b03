package query

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ValidateFunc checks the definition of an operator and builds its operand.
type ValidateFunc func(it *Interpreter, op *OperatorNode, definition any) (Node, error)

// Definition is the registry entry of an operator.
type Definition struct {
	Kind     OperatorKind
	Validate ValidateFunc
	// Scope adjusts the context of the operator and its whole subtree.
	Scope func(Context) Context
}

func (d Definition) create(key string, path Path, ctx Context) *OperatorNode {
	if d.Scope != nil {
		ctx = d.Scope(ctx)
	}
	return &OperatorNode{
		base: base{key: key, path: path, ctx: ctx},
		kind: d.Kind,
	}
}

// Registry maps canonical operator names to their definitions. It is filled
// before use and only read afterwards, so it may be shared between
// goroutines.
type Registry struct {
	definitions map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// Install registers d under name. Names are case-insensitive and may be
// given with or without the $ prefix.
func (r *Registry) Install(name string, d Definition) error {
	name = canonicalName(name)
	if name == "" {
		return errors.New("operator name must not be empty")
	}
	if d.Validate == nil {
		return errors.Errorf("operator $%s has no validate function", name)
	}
	if _, exists := r.definitions[name]; exists {
		return errors.Wrapf(ErrDuplicateOperator, "$%s", name)
	}
	r.definitions[name] = d
	return nil
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.definitions[canonicalName(name)]
	return d, ok
}

// Create instantiates the operator registered under name without an operand.
func (r *Registry) Create(name, key string, path Path, ctx Context) (*OperatorNode, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownOperatorError{Name: canonicalName(name)}
	}
	return d.create(key, path, ctx), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) mustInstall(kind OperatorKind, validate ValidateFunc, scope func(Context) Context) {
	err := r.Install(kind.String(), Definition{Kind: kind, Validate: validate, Scope: scope})
	if err != nil {
		panic(err)
	}
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, operatorPrefix))
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding every built-in operator.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewDefaultRegistry()
	})
	return defaultRegistry
}

// NewDefaultRegistry creates a fresh registry with the built-in operators,
// for callers that want to install their own on top.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	installComparison(r)
	installLogical(r)
	installArithmetic(r)
	installString(r)
	installDate(r)
	installAccumulator(r)
	installStage(r)
	return r
}

func expressionScope(ctx Context) Context {
	return ctx.With(AutoEqualConvSupport, false)
}
