// Package holidays manages per-queue holiday calendars. Writes invalidate
// the cached holiday sets for the queue so due dates pick up changes
// immediately instead of waiting out the cache TTL.
package holidays

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	apppkg "github.com/assetdesk/assetdesk/cmd/api/app"
	eventspkg "github.com/assetdesk/assetdesk/cmd/api/events"
	wspkg "github.com/assetdesk/assetdesk/cmd/api/ws"
	slapkg "github.com/assetdesk/assetdesk/internal/sla"
)

const dateLayout = "2006-01-02"

// List returns a queue's holidays sorted by date.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		queueID := c.Param("id")
		rows, err := a.DB.Query(c.Request.Context(),
			`select id::text, queue_id::text, holiday_date, name, country, is_recurring
			 from queue_holidays where queue_id=$1 order by holiday_date`, queueID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()
		out := []slapkg.Holiday{}
		for rows.Next() {
			var h slapkg.Holiday
			if err := rows.Scan(&h.ID, &h.QueueID, &h.Date, &h.Name, &h.Country, &h.IsRecurring); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = append(out, h)
		}
		c.JSON(http.StatusOK, out)
	}
}

// createHolidayReq mirrors the JSON body for creating a holiday.
type createHolidayReq struct {
	Date        string `json:"holiday_date" binding:"required"`
	Name        string `json:"name" binding:"required,min=2"`
	Country     string `json:"country"`
	IsRecurring bool   `json:"is_recurring"`
}

// Create inserts a holiday for the queue. At most one holiday may exist per
// (queue, date) pair.
func Create(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		queueID := c.Param("id")
		var in createHolidayReq
		if err := c.ShouldBindJSON(&in); err != nil {
			errs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					errs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
			return
		}
		day, err := time.ParseInLocation(dateLayout, in.Date, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{"holiday_date": "must be YYYY-MM-DD"}})
			return
		}

		h := slapkg.Holiday{QueueID: queueID, Date: day, Name: in.Name, IsRecurring: in.IsRecurring}
		if in.Country != "" {
			h.Country = &in.Country
		}
		err = a.DB.QueryRow(c.Request.Context(),
			`insert into queue_holidays (queue_id, holiday_date, name, country, is_recurring)
			 values ($1, $2, $3, $4, $5) returning id::text`,
			queueID, day, in.Name, h.Country, in.IsRecurring).Scan(&h.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					c.JSON(http.StatusConflict, gin.H{"error": "holiday already exists for this date"})
					return
				case "23503":
					c.JSON(http.StatusNotFound, gin.H{"error": "queue not found"})
					return
				}
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		a.Cache.InvalidatePrefix(c.Request.Context(), slapkg.HolidayCachePrefix(queueID))
		eventspkg.Emit(c.Request.Context(), a.DB, queueID, "holiday_created", h)
		wspkg.PublishEvent(c.Request.Context(), a.Q, wspkg.Event{Type: "holiday_created", Data: h})
		c.JSON(http.StatusCreated, h)
	}
}

// Delete removes a holiday from the queue's calendar.
func Delete(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		queueID := c.Param("id")
		holidayID := c.Param("hid")
		tag, err := a.DB.Exec(c.Request.Context(),
			`delete from queue_holidays where id=$1 and queue_id=$2`, holidayID, queueID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if tag.RowsAffected() == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "holiday not found"})
			return
		}
		a.Cache.InvalidatePrefix(c.Request.Context(), slapkg.HolidayCachePrefix(queueID))
		eventspkg.Emit(c.Request.Context(), a.DB, queueID, "holiday_deleted", gin.H{"id": holidayID})
		wspkg.PublishEvent(c.Request.Context(), a.Q, wspkg.Event{Type: "holiday_deleted", Data: gin.H{"id": holidayID, "queue_id": queueID}})
		c.Status(http.StatusNoContent)
	}
}
