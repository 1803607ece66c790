// Package events records SLA-relevant changes (holiday and policy writes,
// detected breaches) for audit and dashboard history.
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apppkg "github.com/assetdesk/assetdesk/cmd/api/app"
)

// Emit records an SLA event. Best effort; errors are ignored so event
// bookkeeping never fails the triggering write.
func Emit(ctx context.Context, db apppkg.DB, queueID, typ string, data interface{}) {
	if db == nil {
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	const q = `insert into sla_events (queue_id, event_type, payload) values (nullif($1,'')::uuid, $2, $3)`
	_, _ = db.Exec(ctx, q, queueID, typ, b)
}

// Event is one recorded SLA event.
type Event struct {
	ID        string          `json:"id"`
	QueueID   *string         `json:"queue_id,omitempty"`
	Type      string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// List returns the most recent SLA events, newest first, optionally
// filtered by queue_id.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := `select id::text, queue_id::text, event_type, payload, created_at from sla_events`
		args := []interface{}{}
		if qid := c.Query("queue_id"); qid != "" {
			q += ` where queue_id=$1`
			args = append(args, qid)
		}
		q += ` order by created_at desc limit 100`
		rows, err := a.DB.Query(c.Request.Context(), q, args...)
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "event_query", err.Error(), nil)
			return
		}
		defer rows.Close()
		out := []Event{}
		for rows.Next() {
			var ev Event
			if err := rows.Scan(&ev.ID, &ev.QueueID, &ev.Type, &ev.Payload, &ev.CreatedAt); err != nil {
				apppkg.AbortError(c, http.StatusInternalServerError, "event_scan", err.Error(), nil)
				return
			}
			out = append(out, ev)
		}
		c.JSON(http.StatusOK, out)
	}
}
