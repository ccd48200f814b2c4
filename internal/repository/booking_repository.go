package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

const bookingColumns = `b.id, b.tour_id, t.title, b.customer_name, b.customer_email, b.customer_phone,
	b.adults, b.children, b.start_date, b.total_price, b.currency, b.status, b.payment_gateway,
	b.gateway_order_id, b.gateway_payment_id, b.notes, b.created_at, b.updated_at`

const bookingFrom = " FROM bookings b JOIN tours t ON t.id = b.tour_id"

// BookingRepo persists bookings. Status changes go through compare-and-set
// updates so two concurrent writers cannot both move a booking out of the
// same state.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                  model.Booking
		status             string
		orderID, paymentID sql.NullString
	)
	if err := s.Scan(&b.ID, &b.TourID, &b.TourTitle, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.Adults, &b.Children, &b.StartDate, &b.TotalPrice, &b.Currency, &status, &b.PaymentGateway,
		&orderID, &paymentID, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	st, err := model.ParseBookingStatus(status)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w %q", b.ID, err, status)
	}
	b.Status = st
	if orderID.Valid {
		b.GatewayOrderID = &orderID.String
	}
	if paymentID.Valid {
		b.GatewayPaymentID = &paymentID.String
	}
	return &b, nil
}

// Create inserts b in pending status and fills in its ID and timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Second)
	b.Status = model.BookingPending
	const q = `INSERT INTO bookings (tour_id, customer_name, customer_email, customer_phone, adults, children,
		start_date, total_price, currency, status, payment_gateway, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.TourID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.Adults, b.Children, b.StartDate, b.TotalPrice, b.Currency, string(b.Status), b.PaymentGateway,
		b.Notes, now, now)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// SetGatewayOrder records the order id returned by the payment gateway.
func (r *BookingRepo) SetGatewayOrder(ctx context.Context, id uint64, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET gateway_order_id = ? WHERE id = ? AND gateway_order_id IS NULL", orderID, id)
	if err != nil {
		return fmt.Errorf("set gateway order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+bookingFrom+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// MarkPaid moves a pending booking to paid, but only when orderID is the
// gateway order created for it. It reports whether a row changed.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, orderID, paymentID string) (bool, error) {
	const q = `UPDATE bookings SET status = ?, gateway_payment_id = ?
		WHERE id = ? AND gateway_order_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(model.BookingPaid), paymentID, id, orderID, string(model.BookingPending))
	if err != nil {
		return false, fmt.Errorf("mark booking paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateStatus applies from -> to if the booking is still in from. It
// reports whether a row changed.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ? AND status = ?", string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// List returns bookings newest first for the back office.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if f.TourID != 0 {
		where = append(where, "b.tour_id = ?")
		args = append(args, f.TourID)
	}
	q := "SELECT " + bookingColumns + bookingFrom
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q += " ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, max(f.Offset, 0))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
