package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/tour-booking/internal/model"
)

const galleryColumns = "id, title, image_url, category, sort_order, is_visible, created_at, updated_at"

type GalleryRepo struct {
	db *sql.DB
}

func NewGalleryRepo(db *sql.DB) *GalleryRepo {
	return &GalleryRepo{db: db}
}

func scanGallery(s rowScanner) (*model.GalleryImage, error) {
	var g model.GalleryImage
	if err := s.Scan(&g.ID, &g.Title, &g.ImageURL, &g.Category, &g.SortOrder, &g.IsVisible, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GalleryRepo) Create(ctx context.Context, g *model.GalleryImage) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO gallery_images (title, image_url, category, sort_order, is_visible) VALUES (?, ?, ?, ?, ?)",
		g.Title, g.ImageURL, g.Category, g.SortOrder, g.IsVisible)
	if err != nil {
		return fmt.Errorf("insert gallery image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	saved, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*g = *saved
	return nil
}

func (r *GalleryRepo) Update(ctx context.Context, g *model.GalleryImage) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE gallery_images SET title = ?, image_url = ?, category = ?, sort_order = ?, is_visible = ? WHERE id = ?",
		g.Title, g.ImageURL, g.Category, g.SortOrder, g.IsVisible, g.ID); err != nil {
		return fmt.Errorf("update gallery image: %w", err)
	}
	saved, err := r.GetByID(ctx, g.ID)
	if err != nil {
		return err
	}
	*g = *saved
	return nil
}

func (r *GalleryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM gallery_images WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGalleryNotFound
	}
	return nil
}

func (r *GalleryRepo) GetByID(ctx context.Context, id uint64) (*model.GalleryImage, error) {
	g, err := scanGallery(r.db.QueryRowContext(ctx, "SELECT "+galleryColumns+" FROM gallery_images WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGalleryNotFound
	}
	return g, err
}

// List returns images by sort order. Public reads pass visibleOnly; an
// empty category matches all.
func (r *GalleryRepo) List(ctx context.Context, category string, visibleOnly bool) ([]*model.GalleryImage, error) {
	q := "SELECT " + galleryColumns + " FROM gallery_images WHERE 1 = 1"
	var args []any
	if visibleOnly {
		q += " AND is_visible = 1"
	}
	if category != "" {
		q += " AND category = ?"
		args = append(args, category)
	}
	q += " ORDER BY sort_order, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.GalleryImage, 0)
	for rows.Next() {
		g, err := scanGallery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
