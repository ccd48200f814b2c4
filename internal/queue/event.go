// Package queue carries booking lifecycle events over RabbitMQ and writes
// them to the booking audit log.
package queue

import "time"

// BookingQueue is the durable queue every booking event is routed to.
const BookingQueue = "booking.events"

// Event types.
const (
	BookingCreated       = "booking.created"
	BookingOrderFailed   = "booking.order_failed"
	BookingPaid          = "booking.paid"
	BookingStatusChanged = "booking.status_changed"
)

// BookingEvent is published after each booking state change. It carries
// enough for the audit log without a database lookup.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      uint64    `json:"booking_id"`
	TourID         uint64    `json:"tour_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalPrice     string    `json:"total_price"`
	Currency       string    `json:"currency"`
	GatewayOrderID string    `json:"gateway_order_id,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
