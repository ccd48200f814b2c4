package booking

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// MaxTravelers caps one booking's party size.
const MaxTravelers = 20

const dateLayout = "2006-01-02"

// CreateOrderRequest is the traveller form submitted at checkout.
// TotalPrice is what the page displayed; it is compared against the
// server's quote but never stored.
type CreateOrderRequest struct {
	TourID        uint64           `json:"tour_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
	CustomerPhone string           `json:"customer_phone"`
	Adults        int              `json:"adults"`
	Children      int              `json:"children"`
	StartDate     string           `json:"start_date"`
	TotalPrice    *decimal.Decimal `json:"total_price,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

func (r *CreateOrderRequest) normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.ToLower(strings.TrimSpace(r.CustomerEmail))
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TourID, validation.Required),
		validation.Field(&r.CustomerName, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.CustomerEmail, validation.Required, validation.Length(0, 255), is.EmailFormat),
		validation.Field(&r.CustomerPhone, validation.Required, validation.Length(6, 40)),
		validation.Field(&r.Adults, validation.Required.Error("at least one adult is required"), validation.Min(1), validation.Max(MaxTravelers)),
		validation.Field(&r.Children, validation.Min(0), validation.Max(MaxTravelers),
			validation.By(func(any) error {
				if r.Adults+r.Children > MaxTravelers {
					return errors.New("party is larger than the maximum group size")
				}
				return nil
			})),
		validation.Field(&r.StartDate, validation.Required, validation.Date(dateLayout)),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

// startDate parses StartDate and rejects dates before today (UTC).
func (r CreateOrderRequest) startDate(now time.Time) (time.Time, error) {
	d, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return time.Time{}, validation.Errors{"start_date": err}
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if d.Before(today) {
		return time.Time{}, validation.Errors{"start_date": errors.New("must not be in the past")}
	}
	return d, nil
}

// QuoteRequest asks for a price preview without creating anything.
type QuoteRequest struct {
	TourID   uint64 `json:"tour_id"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
}

func (r QuoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TourID, validation.Required),
		validation.Field(&r.Adults, validation.Required, validation.Min(1), validation.Max(MaxTravelers)),
		validation.Field(&r.Children, validation.Min(0), validation.Max(MaxTravelers)),
	)
}

// VerifyRequest is the payload the checkout widget hands back after a
// successful payment, plus the booking it belongs to.
type VerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	BookingID uint64 `json:"booking_id"`
}

func (r VerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.PaymentID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Signature, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.BookingID, validation.Required),
	)
}
