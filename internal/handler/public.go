package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// PublicHandler serves the read-only pages of the site. Only active tours,
// visible gallery images and approved testimonials are ever returned.
type PublicHandler struct {
	Tours        *repository.TourRepo
	Gallery      *repository.GalleryRepo
	Testimonials *repository.TestimonialRepo
}

func NewPublicHandler(t *repository.TourRepo, g *repository.GalleryRepo, ts *repository.TestimonialRepo) *PublicHandler {
	if t == nil || g == nil || ts == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Tours: t, Gallery: g, Testimonials: ts}
}

// ListTours handles GET /api/tours?region=&q=.
func (h *PublicHandler) ListTours(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	tours, err := h.Tours.List(ctx, repository.TourFilter{
		Region:     strings.TrimSpace(c.QueryParam("region")),
		Query:      c.QueryParam("q"),
		ActiveOnly: true,
	})
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tours})
}

// GetTour handles GET /api/tours/:slug.
func (h *PublicHandler) GetTour(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Tours.GetBySlug(ctx, c.Param("slug"), true)
	if errors.Is(err, repository.ErrTourNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *PublicHandler) Destinations(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Tours.Destinations(ctx)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListGallery handles GET /api/gallery?category=.
func (h *PublicHandler) ListGallery(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Gallery.List(ctx, strings.TrimSpace(c.QueryParam("category")), true)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *PublicHandler) ListTestimonials(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Testimonials.List(ctx, model.TestimonialApproved)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
