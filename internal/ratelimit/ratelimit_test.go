package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// adminRouter mounts a write endpoint behind the limiter keyed by client IP,
// mirroring how the admin route group is wired.
func adminRouter(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.Middleware(func(c *gin.Context) string { return c.ClientIP() }))
	r.POST("/queues/:id/holidays", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"ok": true}) })
	return r
}

func post(r http.Handler, from string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/queues/q1/holidays", nil)
	req.RemoteAddr = from
	r.ServeHTTP(rr, req)
	return rr
}

func TestLimiterPerClientBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := adminRouter(New(rdb, 2, time.Minute))

	for i := 0; i < 2; i++ {
		if rr := post(r, "10.0.0.1:5000"); rr.Code != http.StatusCreated {
			t.Fatalf("write %d: expected 201, got %d", i+1, rr.Code)
		}
	}
	if rr := post(r, "10.0.0.1:5000"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once budget is spent, got %d", rr.Code)
	}
	// Another client spends its own budget.
	if rr := post(r, "10.0.0.2:5000"); rr.Code != http.StatusCreated {
		t.Fatalf("second client must not share the budget, got %d", rr.Code)
	}
}

func TestLimiterWindowReset(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := adminRouter(New(rdb, 1, time.Minute))

	if rr := post(r, "10.0.0.1:5000"); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr := post(r, "10.0.0.1:5000"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	mr.FastForward(time.Minute)
	if rr := post(r, "10.0.0.1:5000"); rr.Code != http.StatusCreated {
		t.Fatalf("expected fresh budget after the window, got %d", rr.Code)
	}
}

func TestLimiterDisabledWithoutRedis(t *testing.T) {
	r := adminRouter(New(nil, 1, time.Minute))
	for i := 0; i < 3; i++ {
		if rr := post(r, "10.0.0.1:5000"); rr.Code != http.StatusCreated {
			t.Fatalf("nil client must disable limiting, got %d", rr.Code)
		}
	}
}
