package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
)

// RegisterAdmin mounts the back office under /api/admin. Every route needs
// an ADMIN access token; successful writes purge the public cache.
func RegisterAdmin(e *echo.Echo, d Deps) {
	a := d.Admin
	g := e.Group("/api/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
		middleware.PurgeOnWrite(d.Cache, d.Redis),
	)

	// ---- Tours ----
	g.GET("/tours", a.ListTours)
	g.GET("/tours/:id", a.GetTour)
	g.POST("/tours", a.CreateTour)
	g.PUT("/tours/:id", a.UpdateTour)
	g.PATCH("/tours/:id/active", a.SetTourActive)
	g.DELETE("/tours/:id", a.DeleteTour)

	// ---- Bookings ----
	g.GET("/bookings", a.ListBookings)
	g.GET("/bookings/:id", a.GetBooking)
	g.PATCH("/bookings/:id/status", a.UpdateBookingStatus)

	// ---- Gallery ----
	g.GET("/gallery", a.ListGallery)
	g.POST("/gallery", a.CreateGallery)
	g.PUT("/gallery/:id", a.UpdateGallery)
	g.DELETE("/gallery/:id", a.DeleteGallery)

	// ---- Moderation ----
	g.GET("/testimonials", a.ListTestimonials)
	g.PATCH("/testimonials/:id/status", a.SetTestimonialStatus)
	g.DELETE("/testimonials/:id", a.DeleteTestimonial)
	g.GET("/contacts", a.ListContacts)
	g.PATCH("/contacts/:id/status", a.SetContactStatus)
	g.DELETE("/contacts/:id", a.DeleteContact)
	g.GET("/newsletter", a.ListSubscribers)
	g.DELETE("/newsletter/:id", a.DeleteSubscriber)
}
