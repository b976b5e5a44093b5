package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-registration/internal/config"
	"github.com/iliyamo/event-registration/internal/database"
	"github.com/iliyamo/event-registration/internal/handler"
	"github.com/iliyamo/event-registration/internal/queue"
	"github.com/iliyamo/event-registration/internal/registration"
	"github.com/iliyamo/event-registration/internal/repository"
	"github.com/iliyamo/event-registration/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.Pool{
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
		PingTimeout: cfg.DBPingTimeout,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and seat-map cache disabled")
	}

	users := repository.NewUserRepo(db)
	bookings := repository.NewBookingRepo(db)
	policy := registration.TierPolicy{
		LockThreshold: cfg.TierLockThreshold,
		OneDayQuota:   cfg.OneDayQuota,
		TwoDayQuota:   cfg.TwoDayQuota,
	}
	issuer := registration.NewIssuer(users, policy, cfg.RegNumberBase)
	ledger := registration.NewLedger(db, users, bookings, policy, issuer)

	bookingHandler := handler.NewBookingHandler(ledger)
	viewHandler := handler.NewViewHandler(users, bookings)

	e := echo.New()
	router.RegisterRoutes(e, bookingHandler, viewHandler, cfg, rdb)

	// The notify consumer is the stand-in delivery collaborator; it runs a
	// reconnect loop for the lifetime of the process.
	go func() {
		if err := queue.StartNotifyConsumer(); err != nil {
			log.Printf("notify consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
