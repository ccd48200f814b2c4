package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking. The set is closed:
// values outside the constants below never reach the database.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "paid"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

var ErrUnknownStatus = errors.New("unknown status")

// adminTransitions lists the moves an administrator may apply. pending ->
// paid is absent because only a verified gateway signature may mark a
// booking paid.
var adminTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingPaid:      {BookingConfirmed, BookingCompleted, BookingCancelled},
	BookingConfirmed: {BookingCompleted},
}

// ParseBookingStatus accepts the persisted lowercase names, ignoring case
// and surrounding whitespace.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case BookingPending, BookingPaid, BookingConfirmed, BookingCancelled, BookingCompleted:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// CanTransitionTo reports whether an administrator may move a booking from
// s to next. Repeating the current status is not a transition.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range adminTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is one reservation attempt for a tour. TotalPrice is fixed at
// order creation from the tour's base price and is never recomputed.
type Booking struct {
	ID               uint64          `json:"id"`
	TourID           uint64          `json:"tour_id"`
	TourTitle        string          `json:"tour_title,omitempty"` // joined on admin reads
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerPhone    string          `json:"customer_phone"`
	Adults           int             `json:"adults"`
	Children         int             `json:"children"`
	StartDate        time.Time       `json:"start_date"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Currency         string          `json:"currency"`
	Status           BookingStatus   `json:"status"`
	PaymentGateway   string          `json:"payment_gateway"`
	GatewayOrderID   *string         `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string         `json:"gateway_payment_id,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BookingFilter narrows admin listings. Zero values match everything.
type BookingFilter struct {
	Status BookingStatus
	TourID uint64
	Limit  int
	Offset int
}
