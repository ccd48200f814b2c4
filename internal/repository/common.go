package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// setStatus updates the status column of a content table. The table name
// is always a constant from this package, never user input.
func setStatus(ctx context.Context, db *sql.DB, table string, id uint64, status string, notFound error) error {
	if _, err := db.ExecContext(ctx, "UPDATE "+table+" SET status = ? WHERE id = ?", status, id); err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return err
	}
	return nil
}

func deleteByID(ctx context.Context, db *sql.DB, table string, id uint64, notFound error) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}

// jsonList marshals a slice for a JSON column, storing [] for nil.
func jsonList[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

func scanJSON[T any](raw []byte, dst *[]T, column string) error {
	if len(raw) == 0 {
		*dst = []T{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}
