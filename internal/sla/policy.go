package sla

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Policy is the active SLA configuration for one (queue, category) pair.
// At most one active policy exists per pair.
type Policy struct {
	ID          string   `json:"id"`
	QueueID     string   `json:"queue_id"`
	Category    Category `json:"category"`
	WorkingDays int      `json:"working_days"`
	Description *string  `json:"description,omitempty"`
}

// ActivePolicy returns the active policy for (queueID, category). A ticket
// with no queue or category assigned has no policy by definition and
// short-circuits without touching storage.
func ActivePolicy(ctx context.Context, db DB, queueID string, category Category) (Policy, bool, error) {
	if queueID == "" || category == "" {
		return Policy{}, false, nil
	}
	var p Policy
	var cat string
	err := db.QueryRow(ctx,
		`select id::text, queue_id::text, category, working_days, description
		 from sla_configs where queue_id=$1 and category=$2 and is_active limit 1`,
		queueID, string(category)).Scan(&p.ID, &p.QueueID, &cat, &p.WorkingDays, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Policy{}, false, nil
		}
		return Policy{}, false, err
	}
	p.Category = Category(cat)
	return p, true, nil
}
