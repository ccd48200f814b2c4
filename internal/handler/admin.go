package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// AdminHandler bundles everything the back office manages.
type AdminHandler struct {
	Tours        *repository.TourRepo
	Bookings     *repository.BookingRepo
	Status       BookingService
	Gallery      *repository.GalleryRepo
	Testimonials *repository.TestimonialRepo
	Contacts     *repository.ContactRepo
	Newsletter   *repository.NewsletterRepo
}

// ----- tours -----

type tourInput struct {
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Region       string          `json:"region"`
	DurationDays int             `json:"duration_days"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Summary      string          `json:"summary"`
	Description  string          `json:"description"`
	Itinerary    model.Itinerary `json:"itinerary"`
	Highlights   []string        `json:"highlights"`
	Inclusions   []string        `json:"inclusions"`
	Exclusions   []string        `json:"exclusions"`
	Images       []string        `json:"images"`
	IsActive     *bool           `json:"is_active"`
}

func (in *tourInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Region = strings.TrimSpace(in.Region)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if in.Slug == "" {
		in.Slug = utils.Slugify(in.Title)
	}
}

func (in tourInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&in.Slug, validation.Required, validation.Length(1, 200),
			validation.By(func(any) error {
				if !utils.ValidSlug(in.Slug) {
					return errors.New("must contain only lowercase letters, digits and single hyphens")
				}
				return nil
			})),
		validation.Field(&in.Region, validation.Required, validation.Length(2, 100)),
		validation.Field(&in.DurationDays, validation.Required, validation.Min(1), validation.Max(60)),
		validation.Field(&in.BasePrice, validation.By(func(any) error {
			if !in.BasePrice.IsPositive() {
				return errors.New("must be greater than zero")
			}
			if in.BasePrice.Exponent() < -2 {
				return errors.New("must have at most two decimals")
			}
			return nil
		})),
		validation.Field(&in.Summary, validation.Length(0, 500)),
		validation.Field(&in.Itinerary, validation.By(func(any) error {
			if len(in.Itinerary) > in.DurationDays {
				return errors.New("has more days than the tour lasts")
			}
			return in.Itinerary.Validate()
		})),
		validation.Field(&in.Images, validation.Each(is.URL)),
	)
}

func (in tourInput) tour() *model.Tour {
	t := &model.Tour{
		Slug:         in.Slug,
		Title:        in.Title,
		Region:       in.Region,
		DurationDays: in.DurationDays,
		BasePrice:    in.BasePrice,
		Summary:      in.Summary,
		Description:  in.Description,
		Itinerary:    in.Itinerary,
		Highlights:   in.Highlights,
		Inclusions:   in.Inclusions,
		Exclusions:   in.Exclusions,
		Images:       in.Images,
		IsActive:     true,
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	return t
}

var errBadBody = errors.New("invalid request body")

// inputError answers a bind or validation failure with 400.
func inputError(c echo.Context, err error) error {
	if errors.Is(err, errBadBody) {
		return badBody(c)
	}
	return invalidInput(c, err)
}

func bindTour(c echo.Context) (*model.Tour, error) {
	var in tourInput
	if err := c.Bind(&in); err != nil {
		return nil, errBadBody
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in.tour(), nil
}

func (h *AdminHandler) ListTours(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	tours, err := h.Tours.List(ctx, repository.TourFilter{
		Region: strings.TrimSpace(c.QueryParam("region")),
		Query:  c.QueryParam("q"),
	})
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tours})
}

func (h *AdminHandler) GetTour(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTourNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) CreateTour(c echo.Context) error {
	t, err := bindTour(c)
	if err != nil {
		return inputError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Tours.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
		}
		return serverError(c, "could not create tour", err)
	}
	logging.FromContext(ctx).WithField("tour_id", t.ID).Info("tour created")
	return c.JSON(http.StatusCreated, t)
}

func (h *AdminHandler) UpdateTour(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	t, err := bindTour(c)
	if err != nil {
		return inputError(c, err)
	}
	t.ID = id

	ctx, cancel := dbCtx(c)
	defer cancel()

	switch err := h.Tours.Update(ctx, t); {
	case errors.Is(err, repository.ErrTourNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	case errors.Is(err, repository.ErrSlugExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
	case err != nil:
		return serverError(c, "could not update tour", err)
	}
	return c.JSON(http.StatusOK, t)
}

// SetTourActive handles PATCH /api/admin/tours/:id/active with {"is_active": bool}.
func (h *AdminHandler) SetTourActive(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil || body.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	err = h.Tours.SetActive(ctx, id, *body.IsActive)
	if errors.Is(err, repository.ErrTourNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	if err != nil {
		return serverError(c, "could not update tour", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": *body.IsActive})
}

func (h *AdminHandler) DeleteTour(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	switch err := h.Tours.Delete(ctx, id); {
	case errors.Is(err, repository.ErrTourNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "tour has bookings; deactivate it instead"})
	case err != nil:
		return serverError(c, "could not delete tour", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- bookings -----

// ListBookings handles GET /api/admin/bookings?status=&tour_id=&limit=&offset=.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	var f model.BookingFilter
	if s := c.QueryParam("status"); s != "" {
		st, err := model.ParseBookingStatus(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		f.Status = st
	}
	tourID, err := queryUint(c, "tour_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour_id"})
	}
	f.TourID = tourID
	f.Limit = queryInt(c, "limit", 50)
	f.Offset = queryInt(c, "offset", 0)

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Bookings.List(ctx, f)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, b)
}

// UpdateBookingStatus handles PATCH /api/admin/bookings/:id/status.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	to, err := model.ParseBookingStatus(bindStatus(c))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	b, err := h.Status.ChangeStatus(ctx, id, to)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ----- gallery -----

type galleryInput struct {
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	SortOrder int    `json:"sort_order"`
	IsVisible *bool  `json:"is_visible"`
}

func (in galleryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.ImageURL, validation.Required, is.URL),
		validation.Field(&in.Category, validation.Length(0, 100)),
		validation.Field(&in.SortOrder, validation.Min(0)),
	)
}

func bindGallery(c echo.Context) (*model.GalleryImage, error) {
	var in galleryInput
	if err := c.Bind(&in); err != nil {
		return nil, errBadBody
	}
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if err := in.Validate(); err != nil {
		return nil, err
	}
	g := &model.GalleryImage{Title: in.Title, ImageURL: in.ImageURL, Category: in.Category, SortOrder: in.SortOrder, IsVisible: true}
	if in.IsVisible != nil {
		g.IsVisible = *in.IsVisible
	}
	return g, nil
}

func (h *AdminHandler) ListGallery(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Gallery.List(ctx, strings.TrimSpace(c.QueryParam("category")), false)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) CreateGallery(c echo.Context) error {
	g, err := bindGallery(c)
	if err != nil {
		return inputError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Gallery.Create(ctx, g); err != nil {
		return serverError(c, "could not create image", err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *AdminHandler) UpdateGallery(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	g, err := bindGallery(c)
	if err != nil {
		return inputError(c, err)
	}
	g.ID = id

	ctx, cancel := dbCtx(c)
	defer cancel()

	err = h.Gallery.Update(ctx, g)
	if errors.Is(err, repository.ErrGalleryNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
	}
	if err != nil {
		return serverError(c, "could not update image", err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *AdminHandler) DeleteGallery(c echo.Context) error {
	return h.deleteWith(c, h.Gallery.Delete, repository.ErrGalleryNotFound, "image not found")
}

// ----- moderation -----

func (h *AdminHandler) ListTestimonials(c echo.Context) error {
	var status model.TestimonialStatus
	if s := c.QueryParam("status"); s != "" {
		st, err := model.ParseTestimonialStatus(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		status = st
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Testimonials.List(ctx, status)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) SetTestimonialStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	st, err := model.ParseTestimonialStatus(bindStatus(c))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	err = h.Testimonials.SetStatus(ctx, id, st)
	if errors.Is(err, repository.ErrTestimonialNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "testimonial not found"})
	}
	if err != nil {
		return serverError(c, "could not update testimonial", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": st})
}

func (h *AdminHandler) DeleteTestimonial(c echo.Context) error {
	return h.deleteWith(c, h.Testimonials.Delete, repository.ErrTestimonialNotFound, "testimonial not found")
}

func (h *AdminHandler) ListContacts(c echo.Context) error {
	var status model.ContactStatus
	if s := c.QueryParam("status"); s != "" {
		st, err := model.ParseContactStatus(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		status = st
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Contacts.List(ctx, status)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) SetContactStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	st, err := model.ParseContactStatus(bindStatus(c))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	err = h.Contacts.SetStatus(ctx, id, st)
	if errors.Is(err, repository.ErrContactNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}
	if err != nil {
		return serverError(c, "could not update contact", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": st})
}

func (h *AdminHandler) DeleteContact(c echo.Context) error {
	return h.deleteWith(c, h.Contacts.Delete, repository.ErrContactNotFound, "contact not found")
}

func (h *AdminHandler) ListSubscribers(c echo.Context) error {
	var status model.SubscriberStatus
	if s := c.QueryParam("status"); s != "" {
		st, err := model.ParseSubscriberStatus(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		status = st
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Newsletter.List(ctx, status)
	if err != nil {
		return serverError(c, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) DeleteSubscriber(c echo.Context) error {
	return h.deleteWith(c, h.Newsletter.Delete, repository.ErrSubscriberNotFound, "subscriber not found")
}

// bindStatus reads {"status": "..."}; a missing or unreadable body yields ""
// which no status parser accepts.
func bindStatus(c echo.Context) string {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return ""
	}
	return body.Status
}

func (h *AdminHandler) deleteWith(c echo.Context, del func(ctx context.Context, id uint64) error, notFound error, msg string) error {
	id, err := parseID(c)
	if err != nil {
		return badID(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	err = del(ctx, id)
	if errors.Is(err, notFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
	}
	if err != nil {
		return serverError(c, "could not delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

var _ BookingService = (*booking.Service)(nil)
