package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

const testimonialColumns = "id, customer_name, location, rating, message, tour_id, status, created_at, updated_at"

type TestimonialRepo struct {
	db *sql.DB
}

func NewTestimonialRepo(db *sql.DB) *TestimonialRepo {
	return &TestimonialRepo{db: db}
}

// Create stores a submission in pending status.
func (r *TestimonialRepo) Create(ctx context.Context, t *model.Testimonial) error {
	now := time.Now().UTC().Truncate(time.Second)
	t.Status = model.TestimonialPending
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO testimonials (customer_name, location, rating, message, tour_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.CustomerName, t.Location, t.Rating, t.Message, t.TourID, string(t.Status), now, now)
	if err != nil {
		return fmt.Errorf("insert testimonial: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

// List returns testimonials newest first; an empty status matches all.
func (r *TestimonialRepo) List(ctx context.Context, status model.TestimonialStatus) ([]*model.Testimonial, error) {
	q := "SELECT " + testimonialColumns + " FROM testimonials"
	var args []any
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, string(status))
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Testimonial, 0)
	for rows.Next() {
		var (
			t      model.Testimonial
			tourID sql.NullInt64
			st     string
		)
		if err := rows.Scan(&t.ID, &t.CustomerName, &t.Location, &t.Rating, &t.Message, &tourID, &st,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if tourID.Valid {
			id := uint64(tourID.Int64)
			t.TourID = &id
		}
		t.Status = model.TestimonialStatus(st)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TestimonialRepo) SetStatus(ctx context.Context, id uint64, status model.TestimonialStatus) error {
	return setStatus(ctx, r.db, "testimonials", id, string(status), ErrTestimonialNotFound)
}

func (r *TestimonialRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "testimonials", id, ErrTestimonialNotFound)
}
