// Package booking implements the checkout workflow: pricing a party,
// creating a pending booking with a gateway order, verifying the signed
// payment confirmation and applying back office status transitions.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/metrics"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/payment"
	"github.com/iliyamo/tour-booking/internal/queue"
	"github.com/iliyamo/tour-booking/internal/repository"
)

type TourReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Tour, error)
}

type Store interface {
	Create(ctx context.Context, b *model.Booking) error
	SetGatewayOrder(ctx context.Context, id uint64, orderID string) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	MarkPaid(ctx context.Context, id uint64, orderID, paymentID string) (bool, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error)
}

type Gateway interface {
	Name() string
	KeyID() string
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Service coordinates tours, bookings, the payment gateway and the event
// queue. It holds no mutable state; every call is independent.
type Service struct {
	tours    TourReader
	bookings Store
	gateway  Gateway
	events   Publisher
	currency string
	now      func() time.Time
}

func NewService(tours TourReader, bookings Store, gateway Gateway, events Publisher, currency string) *Service {
	if tours == nil || bookings == nil || gateway == nil {
		panic("nil dependency passed to booking.NewService")
	}
	return &Service{
		tours:    tours,
		bookings: bookings,
		gateway:  gateway,
		events:   events,
		currency: currency,
		now:      time.Now,
	}
}

// QuoteResult is a price preview.
type QuoteResult struct {
	TotalPrice decimal.Decimal `json:"total_price"`
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
}

// OrderResult is what the checkout widget needs to open the payment.
type OrderResult struct {
	OrderID    string          `json:"order_id"`
	Currency   string          `json:"currency"`
	Amount     int64           `json:"amount"`
	BookingID  uint64          `json:"booking_id"`
	KeyID      string          `json:"key_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// loadTour returns an active tour or ErrTourUnavailable.
func (s *Service) loadTour(ctx context.Context, id uint64) (*model.Tour, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTourNotFound) {
		return nil, ErrTourUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("load tour: %w", err)
	}
	if !tour.IsActive {
		return nil, ErrTourUnavailable
	}
	return tour, nil
}

func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	tour, err := s.loadTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}
	total := Quote(tour.BasePrice, req.Adults, req.Children)
	return &QuoteResult{TotalPrice: total, Amount: MinorUnits(total), Currency: s.currency}, nil
}

// CreateOrder persists a pending booking and then opens a gateway order
// for it. The booking row always exists before the gateway is called, so
// a gateway failure leaves a pending booking without an order id behind.
// That row is kept for the back office rather than cancelled.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	log := logging.FromContext(ctx)

	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	start, err := req.startDate(s.now())
	if err != nil {
		return nil, invalid(err)
	}

	tour, err := s.loadTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}

	total := Quote(tour.BasePrice, req.Adults, req.Children)
	if req.TotalPrice != nil && !req.TotalPrice.Equal(total) {
		log.WithFields(logrus.Fields{
			"tour_id":      tour.ID,
			"client_total": req.TotalPrice.String(),
			"server_total": total.String(),
		}).Warn("client total differs from server quote, using server quote")
	}

	b := &model.Booking{
		TourID:         tour.ID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Adults:         req.Adults,
		Children:       req.Children,
		StartDate:      start,
		TotalPrice:     total,
		Currency:       s.currency,
		Status:         model.BookingPending,
		PaymentGateway: s.gateway.Name(),
		Notes:          req.Notes,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.BookingCreated()
	log = log.WithField("booking_id", b.ID)

	amount := MinorUnits(total)
	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  "booking_" + strconv.FormatUint(b.ID, 10),
		Notes: map[string]string{
			"booking_id": strconv.FormatUint(b.ID, 10),
			"tour":       tour.Slug,
		},
	})
	if err != nil {
		log.WithError(err).Error("gateway order failed, booking left pending without order")
		s.publish(ctx, queue.BookingOrderFailed, b, "")
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	if err := s.bookings.SetGatewayOrder(ctx, b.ID, order.ID); err != nil {
		log.WithError(err).WithField("gateway_order_id", order.ID).Error("saving gateway order id failed")
		return nil, fmt.Errorf("save gateway order: %w", err)
	}
	b.GatewayOrderID = &order.ID
	log.WithFields(logrus.Fields{"gateway_order_id": order.ID, "amount": amount}).Info("booking order created")
	s.publish(ctx, queue.BookingCreated, b, "")

	return &OrderResult{
		OrderID:    order.ID,
		Currency:   s.currency,
		Amount:     amount,
		BookingID:  b.ID,
		KeyID:      s.gateway.KeyID(),
		TotalPrice: total,
	}, nil
}

// VerifyPayment checks the gateway signature and marks the booking paid.
// On any failure the booking is left untouched. Replaying a confirmation
// that was already applied succeeds without writing.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyRequest) error {
	log := logging.FromContext(ctx).WithField("booking_id", req.BookingID)

	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		metrics.PaymentVerification("signature_mismatch")
		log.Warn("payment signature mismatch")
		return ErrSignatureMismatch
	}

	ok, err := s.bookings.MarkPaid(ctx, req.BookingID, req.OrderID, req.PaymentID)
	if err != nil {
		metrics.PaymentVerification("error")
		return fmt.Errorf("mark paid: %w", err)
	}
	if ok {
		metrics.PaymentVerification("ok")
		log.WithField("gateway_order_id", req.OrderID).Info("booking paid")
		paid, err := s.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			paid = &model.Booking{ID: req.BookingID, Status: model.BookingPaid, Currency: s.currency, GatewayOrderID: &req.OrderID}
		}
		s.publish(ctx, queue.BookingPaid, paid, model.BookingPending)
		return nil
	}

	// Nothing changed: find out why.
	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		metrics.PaymentVerification("not_found")
		return ErrBookingNotFound
	}
	if err != nil {
		metrics.PaymentVerification("error")
		return fmt.Errorf("load booking: %w", err)
	}
	if b.GatewayOrderID == nil || *b.GatewayOrderID != req.OrderID {
		metrics.PaymentVerification("order_mismatch")
		log.Warn("payment confirmation for an order not issued to this booking")
		return ErrSignatureMismatch
	}
	if b.Status == model.BookingPaid && b.GatewayPaymentID != nil && *b.GatewayPaymentID == req.PaymentID {
		metrics.PaymentVerification("replay")
		return nil
	}
	metrics.PaymentVerification("conflict")
	return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
}

// ChangeStatus applies an administrator's transition. Terminal states and
// transitions not listed in model.BookingStatus.CanTransitionTo are
// rejected with ErrInvalidTransition and nothing is written.
func (s *Service) ChangeStatus(ctx context.Context, id uint64, to model.BookingStatus) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}

	from := b.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	ok, err := s.bookings.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		// another writer moved the booking after we read it
		return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, from)
	}

	b.Status = to
	metrics.BookingTransition(string(from), string(to))
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id": id,
		"from":       from,
		"to":         to,
	}).Info("booking status changed")
	s.publish(ctx, queue.BookingStatusChanged, b, from)
	return b, nil
}

// publish emits an event. Broker failures are logged and never surface to
// the caller.
func (s *Service) publish(ctx context.Context, typ string, b *model.Booking, prev model.BookingStatus) {
	if s.events == nil {
		return
	}
	ev := queue.BookingEvent{
		Type:           typ,
		BookingID:      b.ID,
		TourID:         b.TourID,
		Status:         string(b.Status),
		PreviousStatus: string(prev),
		Currency:       b.Currency,
		OccurredAt:     s.now().UTC(),
	}
	if !b.TotalPrice.IsZero() {
		ev.TotalPrice = b.TotalPrice.StringFixed(2)
	}
	if b.GatewayOrderID != nil {
		ev.GatewayOrderID = *b.GatewayOrderID
	}
	if id, ok := logging.FromContext(ctx).Data["request_id"].(string); ok {
		ev.RequestID = id
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("event", typ).Warn("publish booking event failed")
	}
}
