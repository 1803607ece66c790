package sla

import (
	"context"
	"time"
)

// Holiday is one excluded calendar date for a queue.
type Holiday struct {
	ID          string    `json:"id"`
	QueueID     string    `json:"queue_id"`
	Date        time.Time `json:"holiday_date"`
	Name        string    `json:"name"`
	Country     *string   `json:"country,omitempty"`
	IsRecurring bool      `json:"is_recurring"`
}

// ListHolidays returns the dates excluded from working-day counting for
// queueID within [from, to] inclusive, keyed by DateKey. Rows flagged
// recurring match their month/day in every year of the range. An unknown
// queue yields an empty set.
func ListHolidays(ctx context.Context, db DB, queueID string, from, to time.Time) (map[time.Time]struct{}, error) {
	fromKey, toKey := DateKey(from), DateKey(to)
	rows, err := db.Query(ctx,
		`select holiday_date, is_recurring from queue_holidays
		 where queue_id=$1 and (is_recurring or (holiday_date >= $2 and holiday_date <= $3))`,
		queueID, fromKey, toKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[time.Time]struct{})
	for rows.Next() {
		var d time.Time
		var recurring bool
		if err := rows.Scan(&d, &recurring); err != nil {
			return nil, err
		}
		if !recurring {
			out[DateKey(d)] = struct{}{}
			continue
		}
		for y := fromKey.Year(); y <= toKey.Year(); y++ {
			cand := time.Date(y, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			if cand.Month() != d.Month() {
				// Feb 29 does not exist this year.
				continue
			}
			if cand.Before(fromKey) || cand.After(toKey) {
				continue
			}
			out[cand] = struct{}{}
		}
	}
	return out, rows.Err()
}
