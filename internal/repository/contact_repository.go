package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	now := time.Now().UTC().Truncate(time.Second)
	c.Status = model.ContactNew
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (name, email, phone, subject, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.Subject, c.Message, string(c.Status), now, now)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *ContactRepo) List(ctx context.Context, status model.ContactStatus) ([]*model.Contact, error) {
	q := "SELECT id, name, email, phone, subject, message, status, created_at, updated_at FROM contacts"
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

	out := make([]*model.Contact, 0)
	for rows.Next() {
		var c model.Contact
		var st string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Subject, &c.Message, &st, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Status = model.ContactStatus(st)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ContactRepo) SetStatus(ctx context.Context, id uint64, status model.ContactStatus) error {
	return setStatus(ctx, r.db, "contacts", id, string(status), ErrContactNotFound)
}

func (r *ContactRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "contacts", id, ErrContactNotFound)
}
