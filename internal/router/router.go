package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-registration/internal/config"
	"github.com/iliyamo/event-registration/internal/handler"
	"github.com/iliyamo/event-registration/internal/middleware"
)

// RegisterRoutes registers all application routes on the provided Echo
// instance.  Booking mutations sit behind the Redis rate limiter; the
// read-only seat maps additionally go through the short-TTL response
// cache; the manual decision and tier-payment routes require the admin
// key.  rdb may be nil, in which case rate limiting and caching degrade
// to pass-throughs.
func RegisterRoutes(e *echo.Echo, b *handler.BookingHandler, v *handler.ViewHandler, cfg config.Config, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewSeatMapCache(config.LoadCacheConfig(), rdb)
	adminKey := middleware.RequireAdminKey(cfg.AdminKeyHash)

	g := e.Group("/v1", limiter)

	// Booking lifecycle.  Claiming and cancelling are open to participants;
	// the payment decision is an organizer action.
	g.POST("/bookings", b.Claim)
	g.DELETE("/bookings/:ref", b.Cancel)
	g.POST("/bookings/:ref/decision", b.Decide, adminKey)

	// Tier payment confirmation, also an organizer action.
	g.PUT("/profile/paid-tier", b.ConfirmTierPayment, adminKey)

	// Read-only views for the seat picker and the bot.
	g.GET("/slots/:id/seats", v.GetSlotSeats, cache)
	g.GET("/seats", v.GetAllSeats, cache)
	g.GET("/profile", v.GetProfile)
}
