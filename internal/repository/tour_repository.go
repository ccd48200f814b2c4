package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/tour-booking/internal/model"
)

const tourColumns = `id, slug, title, region, duration_days, base_price, summary, description,
	itinerary, highlights, inclusions, exclusions, images, is_active, created_at, updated_at`

// TourFilter narrows listings. ActiveOnly is set for every public read.
type TourFilter struct {
	Region     string
	Query      string
	ActiveOnly bool
}

// TourRepo encapsulates all database queries related to tours.
type TourRepo struct {
	db *sql.DB
}

func NewTourRepo(db *sql.DB) *TourRepo {
	return &TourRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTour(s rowScanner) (*model.Tour, error) {
	var t model.Tour
	var itinerary, highlights, incl, excl, images []byte
	if err := s.Scan(&t.ID, &t.Slug, &t.Title, &t.Region, &t.DurationDays, &t.BasePrice, &t.Summary,
		&t.Description, &itinerary, &highlights, &incl, &excl, &images, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	days := []model.ItineraryDay(t.Itinerary)
	if err := scanJSON(itinerary, &days, "itinerary"); err != nil {
		return nil, err
	}
	t.Itinerary = days
	if err := scanJSON(highlights, &t.Highlights, "highlights"); err != nil {
		return nil, err
	}
	if err := scanJSON(incl, &t.Inclusions, "inclusions"); err != nil {
		return nil, err
	}
	if err := scanJSON(excl, &t.Exclusions, "exclusions"); err != nil {
		return nil, err
	}
	if err := scanJSON(images, &t.Images, "images"); err != nil {
		return nil, err
	}
	return &t, nil
}

// tourDocs encodes the JSON columns in table order.
func tourDocs(t *model.Tour) ([]any, error) {
	out := make([]any, 0, 5)
	itinerary, err := jsonList([]model.ItineraryDay(t.Itinerary))
	if err != nil {
		return nil, err
	}
	out = append(out, itinerary)
	for _, list := range [][]string{t.Highlights, t.Inclusions, t.Exclusions, t.Images} {
		b, err := jsonList(list)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Create inserts a tour and reloads it so timestamps are populated.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	docs, err := tourDocs(t)
	if err != nil {
		return err
	}
	const q = `INSERT INTO tours (slug, title, region, duration_days, base_price, summary, description,
		itinerary, highlights, inclusions, exclusions, images, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := append([]any{t.Slug, t.Title, t.Region, t.DurationDays, t.BasePrice, t.Summary, t.Description}, docs...)
	args = append(args, t.IsActive)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("insert tour: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	saved, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *saved
	return nil
}

// Update overwrites every editable column. MySQL reports zero affected rows
// for an unchanged row, so existence is decided by the reload.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	docs, err := tourDocs(t)
	if err != nil {
		return err
	}
	const q = `UPDATE tours SET slug = ?, title = ?, region = ?, duration_days = ?, base_price = ?,
		summary = ?, description = ?, itinerary = ?, highlights = ?, inclusions = ?, exclusions = ?,
		images = ?, is_active = ? WHERE id = ?`
	args := append([]any{t.Slug, t.Title, t.Region, t.DurationDays, t.BasePrice, t.Summary, t.Description}, docs...)
	args = append(args, t.IsActive, t.ID)
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("update tour: %w", err)
	}
	saved, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *saved
	return nil
}

func (r *TourRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE tours SET is_active = ? WHERE id = ?", active, id); err != nil {
		return fmt.Errorf("update tour active: %w", err)
	}
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM tours WHERE id = ?", id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTourNotFound
		}
		return err
	}
	return nil
}

// Delete removes a tour. Tours referenced by bookings are kept and
// ErrConflict is returned; deactivate them instead.
func (r *TourRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return fmt.Errorf("delete tour: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTourNotFound
	}
	return nil
}

func (r *TourRepo) GetByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := scanTour(r.db.QueryRowContext(ctx, "SELECT "+tourColumns+" FROM tours WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	return t, err
}

// GetBySlug looks a tour up by its public slug. Inactive tours are hidden
// when activeOnly is set.
func (r *TourRepo) GetBySlug(ctx context.Context, slug string, activeOnly bool) (*model.Tour, error) {
	q := "SELECT " + tourColumns + " FROM tours WHERE slug = ?"
	if activeOnly {
		q += " AND is_active = 1"
	}
	t, err := scanTour(r.db.QueryRowContext(ctx, q, strings.ToLower(slug)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	return t, err
}

// List returns tours newest first. Query matches title, summary or region.
func (r *TourRepo) List(ctx context.Context, f TourFilter) ([]*model.Tour, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if f.Region != "" {
		where = append(where, "region = ?")
		args = append(args, f.Region)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, "(title LIKE ? OR summary LIKE ? OR region LIKE ?)")
		args = append(args, like, like, like)
	}
	q := "SELECT " + tourColumns + " FROM tours"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Destinations groups active tours by region.
func (r *TourRepo) Destinations(ctx context.Context) ([]model.Destination, error) {
	const q = `SELECT region, COUNT(*), MIN(base_price) FROM tours
		WHERE is_active = 1 GROUP BY region ORDER BY region`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Destination, 0)
	for rows.Next() {
		var d model.Destination
		if err := rows.Scan(&d.Region, &d.TourCount, &d.FromPrice); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
