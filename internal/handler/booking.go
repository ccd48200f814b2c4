package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/payment"
)

// BookingService is the checkout and status workflow; *booking.Service
// implements it.
type BookingService interface {
	Quote(ctx context.Context, req booking.QuoteRequest) (*booking.QuoteResult, error)
	CreateOrder(ctx context.Context, req booking.CreateOrderRequest) (*booking.OrderResult, error)
	VerifyPayment(ctx context.Context, req booking.VerifyRequest) error
	ChangeStatus(ctx context.Context, id uint64, to model.BookingStatus) (*model.Booking, error)
}

// BookingHandler serves the public checkout endpoints.
type BookingHandler struct {
	Svc BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

// bookingError maps the booking error taxonomy onto HTTP responses.
func bookingError(c echo.Context, err error) error {
	var gerr *payment.GatewayError
	switch {
	case errors.Is(err, booking.ErrValidation):
		return invalidInput(c, err)
	case errors.Is(err, booking.ErrTourUnavailable):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, booking.ErrSignatureMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrSignatureMismatch.Error()})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &gerr):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment gateway error", "detail": gerr.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return serverError(c, "upstream timeout", err)
	default:
		return serverError(c, "internal error", err)
	}
}

// Quote handles POST /api/bookings/quote.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req booking.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Svc.Quote(c.Request().Context(), req)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CreateOrder handles POST /api/bookings/create-order.
func (h *BookingHandler) CreateOrder(c echo.Context) error {
	var req booking.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Svc.CreateOrder(c.Request().Context(), req)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Verify handles POST /api/bookings/verify.
func (h *BookingHandler) Verify(c echo.Context) error {
	var req booking.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := h.Svc.VerifyPayment(c.Request().Context(), req); err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
