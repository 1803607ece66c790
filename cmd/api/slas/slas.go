// Package slas manages SLA policies: the number of working days allowed to
// resolve tickets of a category within a queue. Writes invalidate the
// cached policy for the (queue, category) pair.
package slas

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apppkg "github.com/assetdesk/assetdesk/cmd/api/app"
	eventspkg "github.com/assetdesk/assetdesk/cmd/api/events"
	wspkg "github.com/assetdesk/assetdesk/cmd/api/ws"
	slapkg "github.com/assetdesk/assetdesk/internal/sla"
)

// Config is one SLA policy row.
type Config struct {
	ID          string    `json:"id"`
	QueueID     string    `json:"queue_id"`
	Category    string    `json:"category"`
	WorkingDays int       `json:"working_days"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const configCols = `id::text, queue_id::text, category, working_days, description, is_active, created_at, updated_at`

func scanConfig(row pgx.Row, cfg *Config) error {
	return row.Scan(&cfg.ID, &cfg.QueueID, &cfg.Category, &cfg.WorkingDays, &cfg.Description, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
}

// List returns a queue's SLA configs, active and inactive.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := a.DB.Query(c.Request.Context(),
			`select `+configCols+` from sla_configs where queue_id=$1 order by category`, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()
		out := []Config{}
		for rows.Next() {
			var cfg Config
			if err := scanConfig(rows, &cfg); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = append(out, cfg)
		}
		c.JSON(http.StatusOK, out)
	}
}

// createConfigReq mirrors the JSON body for creating an SLA config.
type createConfigReq struct {
	Category    string  `json:"category" binding:"required"`
	WorkingDays int     `json:"working_days" binding:"required,min=1"`
	Description *string `json:"description"`
}

// Create inserts an active SLA config. At most one active config may exist
// per (queue, category) pair; violations return 409.
func Create(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		queueID := c.Param("id")
		var in createConfigReq
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
		if !slapkg.Category(in.Category).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{"category": "unknown"}})
			return
		}

		var cfg Config
		err := scanConfig(a.DB.QueryRow(c.Request.Context(),
			`insert into sla_configs (queue_id, category, working_days, description)
			 values ($1, $2, $3, $4) returning `+configCols,
			queueID, in.Category, in.WorkingDays, in.Description), &cfg)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					c.JSON(http.StatusConflict, gin.H{"error": "active SLA config already exists for this category"})
					return
				case "23503":
					c.JSON(http.StatusNotFound, gin.H{"error": "queue not found"})
					return
				}
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		invalidate(c, a, cfg.QueueID, cfg.Category)
		eventspkg.Emit(c.Request.Context(), a.DB, cfg.QueueID, "sla_config_created", cfg)
		wspkg.PublishEvent(c.Request.Context(), a.Q, wspkg.Event{Type: "sla_config_created", Data: cfg})
		c.JSON(http.StatusCreated, cfg)
	}
}

// updateConfigReq mirrors the JSON body for a partial update.
type updateConfigReq struct {
	WorkingDays *int    `json:"working_days" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Update applies a partial update to an SLA config.
func Update(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in updateConfigReq
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{"working_days": "min 1"}})
			return
		}
		var cfg Config
		err := scanConfig(a.DB.QueryRow(c.Request.Context(),
			`update sla_configs set
			   working_days = coalesce($2, working_days),
			   description  = coalesce($3, description),
			   is_active    = coalesce($4, is_active),
			   updated_at   = now()
			 where id=$1 returning `+configCols,
			c.Param("id"), in.WorkingDays, in.Description, in.IsActive), &cfg)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "sla config not found"})
				return
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "active SLA config already exists for this category"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		invalidate(c, a, cfg.QueueID, cfg.Category)
		eventspkg.Emit(c.Request.Context(), a.DB, cfg.QueueID, "sla_config_updated", cfg)
		wspkg.PublishEvent(c.Request.Context(), a.Q, wspkg.Event{Type: "sla_config_updated", Data: cfg})
		c.JSON(http.StatusOK, cfg)
	}
}

// Delete removes an SLA config; tickets in its (queue, category) revert to
// no_sla.
func Delete(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var queueID, category string
		err := a.DB.QueryRow(c.Request.Context(),
			`delete from sla_configs where id=$1 returning queue_id::text, category`,
			c.Param("id")).Scan(&queueID, &category)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "sla config not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		invalidate(c, a, queueID, category)
		eventspkg.Emit(c.Request.Context(), a.DB, queueID, "sla_config_deleted", gin.H{"id": c.Param("id")})
		wspkg.PublishEvent(c.Request.Context(), a.Q, wspkg.Event{Type: "sla_config_deleted", Data: gin.H{"id": c.Param("id"), "queue_id": queueID}})
		c.Status(http.StatusNoContent)
	}
}

func invalidate(c *gin.Context, a *apppkg.App, queueID, category string) {
	a.Cache.Invalidate(c.Request.Context(), slapkg.PolicyCacheKey(queueID, slapkg.Category(category)))
}
