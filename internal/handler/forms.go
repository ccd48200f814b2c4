package handler

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// FormHandler accepts the public site's forms: testimonials, contact
// messages and newsletter sign-ups.
type FormHandler struct {
	Testimonials *repository.TestimonialRepo
	Contacts     *repository.ContactRepo
	Newsletter   *repository.NewsletterRepo
}

func NewFormHandler(ts *repository.TestimonialRepo, cr *repository.ContactRepo, nr *repository.NewsletterRepo) *FormHandler {
	if ts == nil || cr == nil || nr == nil {
		panic("nil repository passed to NewFormHandler")
	}
	return &FormHandler{Testimonials: ts, Contacts: cr, Newsletter: nr}
}

type testimonialReq struct {
	CustomerName string  `json:"customer_name"`
	Location     string  `json:"location"`
	Rating       int     `json:"rating"`
	Message      string  `json:"message"`
	TourID       *uint64 `json:"tour_id"`
}

func (r testimonialReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CustomerName, validation.Required, validation.Length(2, 120)),
		validation.Field(&r.Location, validation.Length(0, 120)),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Message, validation.Required, validation.Length(10, 2000)),
	)
}

// SubmitTestimonial stores a review as pending moderation.
func (h *FormHandler) SubmitTestimonial(c echo.Context) error {
	var req testimonialReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Location = strings.TrimSpace(req.Location)
	req.Message = strings.TrimSpace(req.Message)
	if err := req.Validate(); err != nil {
		return invalidInput(c, err)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	t := &model.Testimonial{
		CustomerName: req.CustomerName,
		Location:     req.Location,
		Rating:       req.Rating,
		Message:      req.Message,
		TourID:       req.TourID,
	}
	if err := h.Testimonials.Create(ctx, t); err != nil {
		return serverError(c, "could not save testimonial", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": t.ID, "status": t.Status})
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r contactReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, validation.Length(6, 40)),
		validation.Field(&r.Subject, validation.Length(0, 200)),
		validation.Field(&r.Message, validation.Required, validation.Length(5, 5000)),
	)
}

func (h *FormHandler) SubmitContact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := req.Validate(); err != nil {
		return invalidInput(c, err)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	msg := &model.Contact{Name: req.Name, Email: req.Email, Phone: req.Phone, Subject: req.Subject, Message: req.Message}
	if err := h.Contacts.Create(ctx, msg); err != nil {
		return serverError(c, "could not save message", err)
	}
	logging.FromContext(ctx).WithField("contact_id", msg.ID).Info("contact message received")
	return c.JSON(http.StatusCreated, echo.Map{"id": msg.ID})
}

// Subscribe is idempotent: subscribing an existing address (even one that
// unsubscribed earlier) answers 200 and reactivates it.
func (h *FormHandler) Subscribe(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Validate(req.Email, validation.Required, is.EmailFormat); err != nil {
		return invalidInput(c, validation.Errors{"email": err})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	sub, err := h.Newsletter.Subscribe(ctx, req.Email)
	if err != nil {
		return serverError(c, "could not subscribe", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"email": sub.Email, "status": sub.Status})
}

func (h *FormHandler) Unsubscribe(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	err := h.Newsletter.Unsubscribe(ctx, strings.TrimSpace(req.Token))
	if errors.Is(err, repository.ErrSubscriberNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
	}
	if err != nil {
		return serverError(c, "could not unsubscribe", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": model.Unsubscribed})
}
