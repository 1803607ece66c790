package main

import (
	"context"
	"database/sql"
	"embed"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apppkg "github.com/assetdesk/assetdesk/cmd/api/app"
	eventspkg "github.com/assetdesk/assetdesk/cmd/api/events"
	holidayspkg "github.com/assetdesk/assetdesk/cmd/api/holidays"
	queuespkg "github.com/assetdesk/assetdesk/cmd/api/queues"
	slaspkg "github.com/assetdesk/assetdesk/cmd/api/slas"
	ticketspkg "github.com/assetdesk/assetdesk/cmd/api/tickets"
	wspkg "github.com/assetdesk/assetdesk/cmd/api/ws"
	ratelimitpkg "github.com/assetdesk/assetdesk/internal/ratelimit"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	_ = godotenv.Load()
	cfg := apppkg.GetConfig()
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer pool.Close()

	// Migrate (embedded goose) using pgx stdlib driver
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("goose dialect")
	}
	sqldb, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("sql open for goose")
	}
	defer sqldb.Close()
	if err := goose.UpContext(ctx, sqldb, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrate up")
	}

	// Redis client (optional)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("redis ping")
		}
		defer rdb.Close()
	}

	a := apppkg.NewApp(cfg, pool, rdb)

	hub := wspkg.NewHub(rdb)
	go hub.Run(ctx)

	routes(a, hub, rdb)

	srv := &http.Server{
		Addr:           cfg.Addr,
		Handler:        a.R,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	log.Info().Str("addr", cfg.Addr).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen")
	}
}

func routes(a *apppkg.App, hub *wspkg.Hub, rdb *redis.Client) {
	a.R.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	a.R.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.R.GET("/ws", wspkg.Handler(hub))

	a.R.GET("/queues", queuespkg.List(a))
	a.R.GET("/queues/:id/holidays", holidayspkg.List(a))
	a.R.GET("/queues/:id/sla-configs", slaspkg.List(a))

	a.R.GET("/tickets", ticketspkg.List(a))
	a.R.GET("/tickets/:id/sla", ticketspkg.SLAStatus(a))
	a.R.GET("/sla/summary", ticketspkg.Summary(a))
	a.R.GET("/sla/events", eventspkg.List(a))

	// Admin writes share a per-client redis bucket.
	rl := ratelimitpkg.New(rdb, 60, time.Minute)
	admin := a.R.Group("/")
	admin.Use(rl.Middleware(func(c *gin.Context) string { return c.ClientIP() }))
	admin.POST("/queues", queuespkg.Create(a))
	admin.POST("/queues/:id/holidays", holidayspkg.Create(a))
	admin.DELETE("/queues/:id/holidays/:hid", holidayspkg.Delete(a))
	admin.POST("/queues/:id/sla-configs", slaspkg.Create(a))
	admin.PATCH("/sla-configs/:id", slaspkg.Update(a))
	admin.DELETE("/sla-configs/:id", slaspkg.Delete(a))
}
