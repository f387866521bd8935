package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type testRowsBase struct{}

func (testRowsBase) Close() {}

func (testRowsBase) Err() error { return nil }

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

// scriptedRows replays one scan function per row.
type scriptedRows struct {
	testRowsBase
	rows []func(dest ...any) error
	idx  int
}

func (s *scriptedRows) Next() bool {
	if s.idx >= len(s.rows) {
		return false
	}
	s.idx++
	return true
}

func (s *scriptedRows) Scan(dest ...any) error {
	if s.idx == 0 || s.idx > len(s.rows) {
		return pgx.ErrNoRows
	}
	return s.rows[s.idx-1](dest...)
}

type sqlCall struct {
	query string
	args  []any
}

// fakeSQL records every call and answers with the configured handlers.
type fakeSQL struct {
	calls   []sqlCall
	row     func(query string, args []any) pgx.Row
	rows    func(query string, args []any) (pgx.Rows, error)
	execTag pgconn.CommandTag
	execErr error
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sqlCall{query: query, args: args})
	return f.execTag, f.execErr
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, sqlCall{query: query, args: args})
	if f.row == nil {
		return simpleRow{}
	}
	return f.row(query, args)
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, sqlCall{query: query, args: args})
	if f.rows == nil {
		return &scriptedRows{}, nil
	}
	return f.rows(query, args)
}

func assign[T any](dst any, v T) {
	if p, ok := dst.(*T); ok {
		*p = v
	}
}
