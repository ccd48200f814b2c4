package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/model"
)

func newTourMock(t *testing.T) (*TourRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTourRepo(db), mock
}

var tourCols = []string{"id", "slug", "title", "region", "duration_days", "base_price", "summary", "description",
	"itinerary", "highlights", "inclusions", "exclusions", "images", "is_active", "created_at", "updated_at"}

func tourRow(rows *sqlmock.Rows, id uint64, slug string) *sqlmock.Rows {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, slug, "Kerala Backwaters", "Kerala", 5, "10000.00", "Houseboats", "Five days",
		[]byte(`[{"day":1,"title":"Kochi","description":"Arrive"}]`), []byte(`["Houseboat"]`),
		[]byte(`["Meals"]`), []byte(nil), []byte(`[]`), true, now, now)
}

func TestTourRepoGetBySlugDecodesJSONColumns(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tours WHERE slug = ? AND is_active = 1")).
		WithArgs("kerala-backwaters").
		WillReturnRows(tourRow(sqlmock.NewRows(tourCols), 3, "kerala-backwaters"))

	tour, err := repo.GetBySlug(context.Background(), "Kerala-Backwaters", true)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), tour.ID)
	assert.True(t, tour.BasePrice.Equal(decimal.NewFromInt(10000)))
	require.Len(t, tour.Itinerary, 1)
	assert.Equal(t, "Kochi", tour.Itinerary[0].Title)
	assert.Equal(t, []string{"Houseboat"}, tour.Highlights)
	assert.Equal(t, []string{}, tour.Exclusions)
}

func TestTourRepoGetBySlugNotFound(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectQuery("FROM tours WHERE slug").WillReturnRows(sqlmock.NewRows(tourCols))

	_, err := repo.GetBySlug(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestTourRepoCreateDuplicateSlug(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectExec("INSERT INTO tours").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'kerala' for key 'slug'"})

	err := repo.Create(context.Background(), &model.Tour{Slug: "kerala", BasePrice: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrSlugExists)
}

func TestTourRepoCreateReloads(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectExec("INSERT INTO tours").
		WithArgs("kerala-backwaters", "Kerala Backwaters", "Kerala", 5, sqlmock.AnyArg(), "", "",
			[]byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`), true).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tours WHERE id = ?")).WithArgs(uint64(3)).
		WillReturnRows(tourRow(sqlmock.NewRows(tourCols), 3, "kerala-backwaters"))

	tour := &model.Tour{Slug: "kerala-backwaters", Title: "Kerala Backwaters", Region: "Kerala",
		DurationDays: 5, BasePrice: decimal.NewFromInt(10000), IsActive: true}
	require.NoError(t, repo.Create(context.Background(), tour))
	assert.Equal(t, uint64(3), tour.ID)
	assert.False(t, tour.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTourRepoDeleteReferencedTour(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectExec("DELETE FROM tours").WithArgs(uint64(3)).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrConflict)
}

func TestTourRepoDeleteMissing(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectExec("DELETE FROM tours").WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrTourNotFound)
}

func TestTourRepoListBuildsFilter(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = 1 AND region = ? AND (title LIKE ? OR summary LIKE ? OR region LIKE ?)")).
		WithArgs("Kerala", "%boat%", "%boat%", "%boat%").
		WillReturnRows(tourRow(sqlmock.NewRows(tourCols), 3, "kerala-backwaters"))

	list, err := repo.List(context.Background(), TourFilter{Region: "Kerala", Query: " boat ", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTourRepoDestinations(t *testing.T) {
	repo, mock := newTourMock(t)
	mock.ExpectQuery("GROUP BY region").WillReturnRows(
		sqlmock.NewRows([]string{"region", "count", "min"}).
			AddRow("Kerala", 2, "8500.00").
			AddRow("Ladakh", 1, "32000.00"))

	ds, err := repo.Destinations(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, 2, ds[0].TourCount)
	assert.Equal(t, "8500", ds[0].FromPrice.String())
}
