package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/tour-booking/internal/model"
)

const subscriberColumns = "id, email, status, unsubscribe_token, created_at, updated_at"

type NewsletterRepo struct {
	db *sql.DB
}

func NewNewsletterRepo(db *sql.DB) *NewsletterRepo {
	return &NewsletterRepo{db: db}
}

func scanSubscriber(s rowScanner) (*model.NewsletterSubscriber, error) {
	var n model.NewsletterSubscriber
	var st string
	if err := s.Scan(&n.ID, &n.Email, &st, &n.UnsubscribeToken, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Status = model.SubscriberStatus(st)
	return &n, nil
}

// Subscribe adds email or flips an unsubscribed address back on. Calling it
// twice for the same address is harmless; the unsubscribe token is kept.
func (r *NewsletterRepo) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `INSERT INTO newsletter_subscribers (email, status, unsubscribe_token) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status)`
	if _, err := r.db.ExecContext(ctx, q, email, string(model.Subscribed), uuid.NewString()); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return scanSubscriber(r.db.QueryRowContext(ctx,
		"SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE email = ?", email))
}

// Unsubscribe marks the subscriber owning token as unsubscribed.
func (r *NewsletterRepo) Unsubscribe(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrSubscriberNotFound
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE newsletter_subscribers SET status = ? WHERE unsubscribe_token = ?", string(model.Unsubscribed), token)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// zero rows: unknown token, or already unsubscribed
	var one int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM newsletter_subscribers WHERE unsubscribe_token = ?", token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSubscriberNotFound
	}
	return err
}

func (r *NewsletterRepo) List(ctx context.Context, status model.SubscriberStatus) ([]*model.NewsletterSubscriber, error) {
	q := "SELECT " + subscriberColumns + " FROM newsletter_subscribers"
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

	out := make([]*model.NewsletterSubscriber, 0)
	for rows.Next() {
		n, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NewsletterRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "newsletter_subscribers", id, ErrSubscriberNotFound)
}
