package query

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
	"github.com/typexs/typexs-base-sub000/typexs/session"
)

// Record is a result row keyed by column name.
type Record map[string]any

type RepositoryOption func(*Repository)

func RepositoryDialect(dialect Dialect) RepositoryOption {
	return func(r *Repository) {
		r.dialect = dialect
	}
}

// RepositoryRootAlias sets the alias of the queried table in every
// statement.
func RepositoryRootAlias(alias string) RepositoryOption {
	return func(r *Repository) {
		r.rootAlias = alias
	}
}

func RepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// Repository runs compiled query documents through a DB session.
type Repository struct {
	resolver  SchemaResolver
	dialect   Dialect
	rootAlias string
	logger    *slog.Logger
}

func NewRepository(resolver SchemaResolver, opts ...RepositoryOption) *Repository {
	r := &Repository{
		resolver: resolver,
		dialect:  Postgres,
		logger:   slog.Default(),
	}
	for i := range opts {
		opts[i](r)
	}
	return r
}

func (r *Repository) compile(entity string, root domainquery.Node) (Select, error) {
	opts := []BuilderOption{WithDialect(r.dialect)}
	if r.rootAlias != "" {
		opts = append(opts, WithRootAlias(r.rootAlias))
	}
	return CompilePipeline(r.resolver, entity, root, opts...)
}

// Find returns the rows of entity selected by root, a condition or a
// pipeline.
func (r *Repository) Find(s session.DbSession, entity string, root domainquery.Node) ([]Record, error) {
	sel, err := r.compile(entity, root)
	if err != nil {
		return nil, err
	}
	query, args := Bind(sel.SQL(), sel.Params, r.dialect)

	defer r.trace(s, query, args, time.Now())
	rows, err := s.Connection().Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", entity)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var records []Record
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scan %s", entity)
		}
		record := make(Record, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			record[column] = values[i]
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of rows Find would return without paging.
func (r *Repository) Count(s session.DbSession, entity string, root domainquery.Node) (int64, error) {
	sel, err := r.compile(entity, root)
	if err != nil {
		return 0, err
	}
	query, args := Bind(sel.CountSQL(), sel.Params, r.dialect)

	defer r.trace(s, query, args, time.Now())
	var count int64
	if err := s.Connection().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "count %s", entity)
	}
	return count, nil
}

// Delete removes the rows of entity matching the condition root and
// returns how many were deleted.
func (r *Repository) Delete(s session.DbSession, entity string, root domainquery.Node) (int64, error) {
	e, err := r.resolver.Entity(entity)
	if err != nil {
		return 0, err
	}
	id, err := singleID(entity, Property{Name: "id"}, e.IDColumns)
	if err != nil {
		return 0, err
	}
	sel, err := r.compile(entity, root)
	if err != nil {
		return 0, err
	}
	if len(sel.GroupBy) > 0 || sel.Having != "" {
		return 0, errors.Wrap(ErrUnsupportedNode, "delete with a $group stage")
	}
	sel.Columns = []string{sel.RootAlias + "." + id}
	query, args := Bind(
		"DELETE FROM "+e.Table+" WHERE "+id+" IN ("+sel.SQL()+")",
		sel.Params, r.dialect,
	)

	defer r.trace(s, query, args, time.Now())
	result, err := s.Connection().Exec(query, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "delete %s", entity)
	}
	return result.RowsAffected()
}

func (r *Repository) trace(s session.DbSession, query string, args []any, start time.Time) {
	r.logger.DebugContext(s.Context(), "query executed",
		slog.String("sql", query),
		slog.Int("args", len(args)),
		slog.Duration("duration", time.Since(start)),
	)
}
