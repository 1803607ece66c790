// Package tickets exposes read-only ticket views with their evaluated SLA
// status. Ticket lifecycle (create/update/assign) is owned by the upstream
// desk system; this service only classifies.
package tickets

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	apppkg "github.com/assetdesk/assetdesk/cmd/api/app"
	slapkg "github.com/assetdesk/assetdesk/internal/sla"
)

// Ticket is the API view of a ticket.
type Ticket struct {
	ID        string         `json:"id"`
	Number    int64          `json:"number"`
	Title     string         `json:"title"`
	QueueID   *string        `json:"queue_id,omitempty"`
	Category  *string        `json:"category,omitempty"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	SLA       *slapkg.Status `json:"sla,omitempty"`
}

const ticketCols = `id::text, number, title, queue_id::text, category, status, created_at`

func scanTicket(row pgx.Row, t *Ticket) error {
	return row.Scan(&t.ID, &t.Number, &t.Title, &t.QueueID, &t.Category, &t.Status, &t.CreatedAt)
}

func slaTicket(t Ticket) slapkg.Ticket {
	st := slapkg.Ticket{ID: t.ID, Status: slapkg.TicketStatus(t.Status), CreatedAt: t.CreatedAt}
	if t.QueueID != nil {
		st.QueueID = *t.QueueID
	}
	if t.Category != nil {
		st.Category = slapkg.Category(*t.Category)
	}
	return st
}

// List returns tickets, newest first, with SLA status embedded. Optional
// queue_id filter.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := `select ` + ticketCols + ` from tickets`
		args := []interface{}{}
		if qid := c.Query("queue_id"); qid != "" {
			q += ` where queue_id=$1`
			args = append(args, qid)
		}
		q += ` order by created_at desc limit 200`
		rows, err := a.DB.Query(c.Request.Context(), q, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()
		out := []Ticket{}
		for rows.Next() {
			var t Ticket
			if err := scanTicket(rows, &t); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = append(out, t)
		}
		for i := range out {
			st := a.SLA.Evaluate(c.Request.Context(), slaTicket(out[i]))
			out[i].SLA = &st
		}
		c.JSON(http.StatusOK, out)
	}
}

// SLAStatus returns the evaluated SLA status for one ticket.
func SLAStatus(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var t Ticket
		err := scanTicket(a.DB.QueryRow(c.Request.Context(),
			`select `+ticketCols+` from tickets where id=$1`, c.Param("id")), &t)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a.SLA.Evaluate(c.Request.Context(), slaTicket(t)))
	}
}

// summaryResp is the dashboard payload: bucket counts plus the sorted
// worklist (breached first).
type summaryResp struct {
	Summary  slapkg.Summary        `json:"summary"`
	Worklist []slapkg.WorklistItem `json:"worklist"`
}

// Summary classifies every open ticket (optionally for one queue) and
// returns aggregate counts and the worklist.
func Summary(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := `select ` + ticketCols + ` from tickets`
		args := []interface{}{}
		if qid := c.Query("queue_id"); qid != "" {
			q += ` where queue_id=$1`
			args = append(args, qid)
		}
		q += ` order by created_at`
		rows, err := a.DB.Query(c.Request.Context(), q, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()
		in := []slapkg.Ticket{}
		for rows.Next() {
			var t Ticket
			if err := scanTicket(rows, &t); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			in = append(in, slaTicket(t))
		}
		sum, worklist := a.SLA.Summarize(c.Request.Context(), in)
		c.JSON(http.StatusOK, summaryResp{Summary: sum, Worklist: worklist})
	}
}
