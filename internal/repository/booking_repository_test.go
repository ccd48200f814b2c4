package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/model"
)

func newMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func bookingRow(id uint64, status string, orderID any) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "tour_id", "title", "customer_name", "customer_email", "customer_phone",
		"adults", "children", "start_date", "total_price", "currency", "status", "payment_gateway",
		"gateway_order_id", "gateway_payment_id", "notes", "created_at", "updated_at",
	}).AddRow(id, 7, "Ladakh Explorer", gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(),
		2, 1, now.AddDate(0, 1, 0), "25000.00", "INR", status, "razorpay",
		orderID, nil, "", now, now)
}

func TestBookingRepoCreateInsertsPending(t *testing.T) {
	repo, mock := newMock(t)
	b := &model.Booking{
		TourID:         7,
		CustomerName:   gofakeit.Name(),
		CustomerEmail:  gofakeit.Email(),
		CustomerPhone:  gofakeit.Phone(),
		Adults:         2,
		Children:       1,
		StartDate:      time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		TotalPrice:     decimal.NewFromInt(25000),
		Currency:       "INR",
		Status:         model.BookingPaid, // overwritten by Create
		PaymentGateway: "razorpay",
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.TourID, b.CustomerName, b.CustomerEmail, b.CustomerPhone, 2, 1,
			sqlmock.AnyArg(), sqlmock.AnyArg(), "INR", "pending", "razorpay", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.False(t, b.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoCreateWrapsDriverError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &model.Booking{TourID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBookingRepoGetByID(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM bookings b JOIN tours t").WithArgs(uint64(42)).
		WillReturnRows(bookingRow(42, "pending", "order_Abc123"))

	b, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, "25000", b.TotalPrice.String())
	require.NotNil(t, b.GatewayOrderID)
	assert.Equal(t, "order_Abc123", *b.GatewayOrderID)
	assert.Nil(t, b.GatewayPaymentID)
	assert.Equal(t, "Ladakh Explorer", b.TourTitle)
}

func TestBookingRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM bookings b JOIN tours t").WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingRepoRejectsUnknownStoredStatus(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM bookings b JOIN tours t").WillReturnRows(bookingRow(3, "refunded", nil))

	_, err := repo.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, model.ErrUnknownStatus)
}

func TestBookingRepoMarkPaidIsConditional(t *testing.T) {
	repo, mock := newMock(t)
	q := regexp.QuoteMeta("UPDATE bookings SET status = ?, gateway_payment_id = ?")

	mock.ExpectExec(q).WithArgs("paid", "pay_1", uint64(42), "order_1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("paid", "pay_1", uint64(42), "order_1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkPaid(context.Background(), 42, "order_1", "pay_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaid(context.Background(), 42, "order_1", "pay_1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoUpdateStatusComparesCurrent(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = ? WHERE id = ? AND status = ?")).
		WithArgs("confirmed", uint64(5), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatus(context.Background(), 5, model.BookingPending, model.BookingConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoSetGatewayOrderOnlyOnce(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("UPDATE bookings SET gateway_order_id").WithArgs("order_1", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetGatewayOrder(context.Background(), 5, "order_1")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingRepoListAppliesFilter(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.status = ? AND b.tour_id = ? ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?")).
		WithArgs("paid", uint64(7), 50, 0).
		WillReturnRows(bookingRow(1, "paid", "order_1"))

	list, err := repo.List(context.Background(), model.BookingFilter{Status: model.BookingPaid, TourID: 7})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.BookingPaid, list[0].Status)
}
