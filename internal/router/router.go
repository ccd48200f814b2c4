// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
)

// Deps is everything the routes need. Redis may be nil, which disables
// rate limiting and caching.
type Deps struct {
	JWTSecret string
	DB        *sql.DB
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	Auth    *handler.AuthHandler
	Public  *handler.PublicHandler
	Forms   *handler.FormHandler
	Booking *handler.BookingHandler
	Admin   *handler.AdminHandler
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterPublic(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterAuth mounts the admin sign-in endpoints under /api/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic mounts the anonymous site API. Reads go through the
// Redis response cache; writes go through the token bucket.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	api := e.Group("/api")
	api.GET("/tours", d.Public.ListTours, cache)
	api.GET("/tours/:slug", d.Public.GetTour, cache)
	api.GET("/destinations", d.Public.Destinations, cache)
	api.GET("/gallery", d.Public.ListGallery, cache)
	api.GET("/testimonials", d.Public.ListTestimonials, cache)

	api.POST("/testimonials", d.Forms.SubmitTestimonial, limit)
	api.POST("/contact", d.Forms.SubmitContact, limit)
	api.POST("/newsletter/subscribe", d.Forms.Subscribe, limit)
	api.POST("/newsletter/unsubscribe", d.Forms.Unsubscribe, limit)

	b := api.Group("/bookings", limit)
	b.POST("/quote", d.Booking.Quote)
	b.POST("/create-order", d.Booking.CreateOrder)
	b.POST("/verify", d.Booking.Verify)
}
