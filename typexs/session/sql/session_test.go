package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typexs/typexs-base-sub000/typexs/session"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec("CREATE TABLE car (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	return db
}

func countCars(t *testing.T, s session.DbSession) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.Connection().QueryRow("SELECT COUNT(*) FROM car").Scan(&n))
	return n
}

func TestSessionAtomic(t *testing.T) {
	db := openDB(t)
	s := NewSession(context.Background(), db)

	t.Run("commit", func(t *testing.T) {
		err := s.Atomic(func(tx session.Session) error {
			_, err := tx.(session.DbSession).Connection().Exec("INSERT INTO car (name) VALUES (?)", "a")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), countCars(t, s))
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Atomic(func(tx session.Session) error {
			_, err := tx.(session.DbSession).Connection().Exec("INSERT INTO car (name) VALUES (?)", "b")
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(1), countCars(t, s))
	})

	t.Run("no savepoints", func(t *testing.T) {
		err := s.Atomic(func(tx session.Session) error {
			return tx.Atomic(func(session.Session) error { return nil })
		})
		assert.Error(t, err)
	})
}

func TestSessionQuery(t *testing.T) {
	db := openDB(t)
	s := NewSession(context.Background(), db)
	res, err := s.Connection().Exec("INSERT INTO car (name) VALUES (?), (?)", "a", "b")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := s.Connection().Query("SELECT id, name FROM car ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)
	var names []string
	for rows.Next() {
		var id int64
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "b"}, names)
}
