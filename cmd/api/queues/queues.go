package queues

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	apppkg "github.com/assetdesk/assetdesk/cmd/api/app"
)

// Queue is an administrative grouping of tickets that owns its own holiday
// calendar and SLA policies.
type Queue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List returns all queues sorted by name.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := a.DB.Query(c.Request.Context(), `select id::text, name from queues order by name`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer rows.Close()
		out := []Queue{}
		for rows.Next() {
			var q Queue
			if err := rows.Scan(&q.ID, &q.Name); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = append(out, q)
		}
		c.JSON(http.StatusOK, out)
	}
}

type createQueueReq struct {
	Name string `json:"name" binding:"required,min=2"`
}

// Create inserts a new queue.
func Create(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in createQueueReq
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": map[string]string{"name": "required"}})
			return
		}
		in.Name = strings.TrimSpace(in.Name)
		var q Queue
		err := a.DB.QueryRow(c.Request.Context(),
			`insert into queues (name) values ($1) returning id::text, name`, in.Name).Scan(&q.ID, &q.Name)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "queue name already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, q)
	}
}
