package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/typexs/typexs-base-sub000/typexs/session"
	"github.com/typexs/typexs-base-sub000/typexs/session/result"
)

// NewDbSessionStub returns a session answering every query with rows. It
// records every statement; ActualQuery and ActualParams hold the last one.
func NewDbSessionStub(rows *RowsStub) *DbSessionStub {
	stub := &DbSessionStub{
		Rows: rows,
	}
	stub.conn = &connectionStub{session: stub}
	return stub
}

type DbSessionStub struct {
	Rows         *RowsStub
	RowsAffected int64
	ActualQuery  string
	ActualParams []any
	Queries      []string
	conn         *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) record(query string, args []any) {
	c.session.ActualQuery = query
	c.session.ActualParams = args
	c.session.Queries = append(c.session.Queries, query)
}

func (c *connectionStub) Exec(query string, args ...any) (session.Result, error) {
	c.record(query, args)
	return result.NewResult(0, c.session.RowsAffected), nil
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	c.record(query, args)
	return c.session.Rows, nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	c.record(query, args)
	c.session.Rows.idx = -1
	c.session.Rows.Next()
	return &RowStub{rows: c.session.Rows}
}

// NewRowsStub creates rows with the given column names and values.
func NewRowsStub(columns []string, rows ...[]any) *RowsStub {
	return &RowsStub{
		columns: columns,
		rows:    rows,
		idx:     -1,
		Closed:  false,
	}
}

type RowsStub struct {
	columns []string
	rows    [][]any
	idx     int
	Closed  bool
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Columns() ([]string, error) {
	return r.columns, nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

// Scan assigns the current row to dest, converting numbers between Go
// kinds. []byte values scan into strings.
func (r *RowsStub) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("no current row")
	}
	row := r.rows[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}
	for i, val := range row {
		if scanner, ok := dest[i].(sql.Scanner); ok {
			if err := scanner.Scan(val); err != nil {
				return err
			}
			continue
		}
		if err := assign(dest[i], val); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func assign(dest, val any) error {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return errors.New("destination is not a pointer")
	}
	target = target.Elem()
	if val == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	if b, ok := val.([]byte); ok && target.Kind() == reflect.String {
		val = string(b)
	}
	source := reflect.ValueOf(val)
	switch {
	case source.Type().AssignableTo(target.Type()):
		target.Set(source)
	case source.CanConvert(target.Type()) && source.Kind() != reflect.String:
		target.Set(source.Convert(target.Type()))
	default:
		return fmt.Errorf("cannot scan %T into %s", val, target.Type())
	}
	return nil
}

type RowStub struct {
	rows *RowsStub
}

func (r *RowStub) Err() error {
	return r.rows.Err()
}

func (r *RowStub) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}
