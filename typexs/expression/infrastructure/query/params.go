package query

import (
	"regexp"
	"sort"
	"strconv"
)

const paramPrefix = "p"

// sequence allocates parameter names and join alias numbers. Builders that
// compile parts of one statement share a sequence.
type sequence struct {
	params int
	joins  int
}

func (s *sequence) nextParam() string {
	name := paramPrefix + strconv.Itoa(s.params)
	s.params++
	return name
}

func (s *sequence) nextJoin() int {
	s.joins++
	return s.joins
}

// mergeParams copies src into dst.
func mergeParams(dst, src map[string]any) error {
	for k, v := range src {
		if _, exists := dst[k]; exists {
			return &ParameterCollisionError{Name: k}
		}
		dst[k] = v
	}
	return nil
}

var namedParam = regexp.MustCompile(`:(` + paramPrefix + `\d+)\b`)

// Bind rewrites the :pN markers of query into the placeholders of dialect
// and returns the arguments in placeholder order. A name used twice is bound
// twice for dialects with anonymous placeholders and once otherwise.
func Bind(query string, params map[string]any, dialect Dialect) (string, []any) {
	var args []any
	positions := map[string]int{}
	anonymous := dialect.Placeholder(1) == dialect.Placeholder(2)
	out := namedParam.ReplaceAllStringFunc(query, func(marker string) string {
		name := marker[1:]
		if n, ok := positions[name]; ok && !anonymous {
			return dialect.Placeholder(n)
		}
		args = append(args, params[name])
		positions[name] = len(args)
		return dialect.Placeholder(len(args))
	})
	return out, args
}

// Positional rewrites :pN markers into $1, $2, ... as pgx expects.
func Positional(query string, params map[string]any) (string, []any) {
	return Bind(query, params, Postgres)
}

// ParamNames lists the names of params in allocation order.
func ParamNames(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := strconv.Atoi(names[i][len(paramPrefix):])
		b, _ := strconv.Atoi(names[j][len(paramPrefix):])
		return a < b
	})
	return names
}
