package sla

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type holRow struct {
	date      time.Time
	recurring bool
}

type holRows struct {
	data []holRow
	idx  int
}

func (r *holRows) Close()                                       {}
func (r *holRows) Err() error                                   { return nil }
func (r *holRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *holRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *holRows) Next() bool                                   { return r.idx < len(r.data) }
func (r *holRows) Values() ([]any, error)                       { return nil, nil }
func (r *holRows) RawValues() [][]byte                          { return nil }
func (r *holRows) Conn() *pgx.Conn                              { return nil }
func (r *holRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	r.idx++
	*(dest[0].(*time.Time)) = row.date
	*(dest[1].(*bool)) = row.recurring
	return nil
}

type policyRow struct {
	p   Policy
	err error
}

func (r *policyRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.p.ID
	*(dest[1].(*string)) = r.p.QueueID
	*(dest[2].(*string)) = string(r.p.Category)
	*(dest[3].(*int)) = r.p.WorkingDays
	*(dest[4].(**string)) = r.p.Description
	return nil
}

// fakeDB serves one queue's holidays and at most one active policy.
type fakeDB struct {
	policy     *Policy
	holidays   []holRow
	policyErr  error
	holidayErr error
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if db.holidayErr != nil {
		return nil, db.holidayErr
	}
	return &holRows{data: db.holidays}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if db.policyErr != nil {
		return &policyRow{err: db.policyErr}
	}
	if db.policy == nil {
		return &policyRow{err: pgx.ErrNoRows}
	}
	return &policyRow{p: *db.policy}
}
