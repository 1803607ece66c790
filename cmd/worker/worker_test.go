package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	slapkg "github.com/assetdesk/assetdesk/internal/sla"
)

type ticketRow struct {
	id        string
	queueID   *string
	category  *string
	status    string
	createdAt time.Time
}

type ticketRows struct {
	data []ticketRow
	idx  int
}

func (r *ticketRows) Close()                                       {}
func (r *ticketRows) Err() error                                   { return nil }
func (r *ticketRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *ticketRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *ticketRows) Next() bool                                   { return r.idx < len(r.data) }
func (r *ticketRows) Values() ([]any, error)                       { return nil, nil }
func (r *ticketRows) RawValues() [][]byte                          { return nil }
func (r *ticketRows) Conn() *pgx.Conn                              { return nil }
func (r *ticketRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	r.idx++
	*(dest[0].(*string)) = row.id
	*(dest[1].(**string)) = row.queueID
	*(dest[2].(**string)) = row.category
	*(dest[3].(*string)) = row.status
	*(dest[4].(*time.Time)) = row.createdAt
	return nil
}

type emptyRows struct{ ticketRows }

// scanDB serves the open-ticket query and records emitted events. Policy
// lookups always find a 1-working-day policy.
type scanDB struct {
	tickets []ticketRow
	emitted []string
}

func (db *scanDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if len(args) == 0 {
		return &ticketRows{data: db.tickets}, nil
	}
	// Holiday lookup from the evaluator.
	return &emptyRows{}, nil
}

type policyRow struct{}

func (policyRow) Scan(dest ...any) error {
	*(dest[0].(*string)) = "p1"
	*(dest[1].(*string)) = "q1"
	*(dest[2].(*string)) = string(slapkg.CategoryGeneral)
	*(dest[3].(*int)) = 1
	*(dest[4].(**string)) = nil
	return nil
}

func (db *scanDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return policyRow{}
}

func (db *scanDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if len(args) >= 2 {
		if typ, ok := args[1].(string); ok {
			db.emitted = append(db.emitted, typ)
		}
	}
	return pgconn.CommandTag{}, nil
}

func TestScanOnceDetectsBreaches(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q1 := "q1"
	cat := string(slapkg.CategoryGeneral)
	db := &scanDB{tickets: []ticketRow{
		// One working day from a month ago is long past due.
		{id: "t-old", queueID: &q1, category: &cat, status: "open", createdAt: time.Now().UTC().AddDate(0, -1, 0)},
		// Created just now, due in the future.
		{id: "t-new", queueID: &q1, category: &cat, status: "open", createdAt: time.Now().UTC()},
	}}
	eval := slapkg.NewEvaluator(db, nil)

	sum, err := scanOnce(context.Background(), db, rdb, eval)
	if err != nil {
		t.Fatalf("scanOnce: %v", err)
	}
	if sum.Breached != 1 {
		t.Fatalf("expected 1 breached, got %+v", sum)
	}
	if len(db.emitted) != 1 || db.emitted[0] != "sla_breach" {
		t.Fatalf("expected one sla_breach event, got %v", db.emitted)
	}
	if !mr.Exists("sla:breach-notified:t-old") {
		t.Fatal("expected breach marker in redis")
	}

	// A second scan must not renotify.
	if _, err := scanOnce(context.Background(), db, rdb, eval); err != nil {
		t.Fatalf("second scanOnce: %v", err)
	}
	if len(db.emitted) != 1 {
		t.Fatalf("breach renotified: %v", db.emitted)
	}
}
