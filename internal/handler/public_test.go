package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/repository"
)

var mysqlReferenced = mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"}

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func get(h echo.HandlerFunc, target string, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	_ = h(c)
	return rec
}

func newPublic(db *sql.DB) *PublicHandler {
	return NewPublicHandler(repository.NewTourRepo(db), repository.NewGalleryRepo(db), repository.NewTestimonialRepo(db))
}

func newForms(db *sql.DB) *FormHandler {
	return NewFormHandler(repository.NewTestimonialRepo(db), repository.NewContactRepo(db), repository.NewNewsletterRepo(db))
}

func TestGetTourUnknownSlug(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery("FROM tours WHERE slug = \\? AND is_active = 1").WithArgs("atlantis").
		WillReturnError(sql.ErrNoRows)

	rec := get(newPublic(db).GetTour, "/api/tours/atlantis", "slug", "atlantis")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "tour not found", decode(t, rec)["error"])
}

func TestListTestimonialsOnlyApproved(t *testing.T) {
	db, mock := newDB(t)
	now := time.Now()
	mock.ExpectQuery("FROM testimonials WHERE status = \\?").WithArgs("approved").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_name", "location", "rating", "message", "tour_id", "status", "created_at", "updated_at"}).
			AddRow(3, gofakeit.Name(), "Pune", 5, "Loved every day of it", nil, "approved", now, now))

	rec := get(newPublic(db).ListTestimonials, "/api/testimonials")

	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "approved", items[0].(map[string]any)["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListToursDatabaseError(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery("FROM tours WHERE is_active = 1").WillReturnError(sql.ErrConnDone)

	rec := get(newPublic(db).ListTours, "/api/tours")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubmitContact(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("Asha Rao", "asha@example.com", "", "Group tour", "Do you run trips in May?", "new", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	rec := postJSON(newForms(db).SubmitContact, "/api/contact",
		`{"name":"Asha Rao","email":"Asha@Example.com","subject":"Group tour","message":"Do you run trips in May?"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(5), decode(t, rec)["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitContactValidation(t *testing.T) {
	db, _ := newDB(t)

	rec := postJSON(newForms(db).SubmitContact, "/api/contact", `{"name":"A","email":"bad","message":""}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "message")
}

func TestSubmitTestimonialStartsPending(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectExec("INSERT INTO testimonials").WillReturnResult(sqlmock.NewResult(8, 1))

	rec := postJSON(newForms(db).SubmitTestimonial, "/api/testimonials",
		`{"customer_name":"Ravi","rating":4,"message":"Great guides and food"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])
}

func TestSubmitTestimonialRatingRange(t *testing.T) {
	db, _ := newDB(t)
	for _, body := range []string{
		`{"customer_name":"Ravi","rating":6,"message":"Great guides and food"}`,
		`{"customer_name":"Ravi","rating":0,"message":"Great guides and food"}`,
	} {
		rec := postJSON(newForms(db).SubmitTestimonial, "/api/testimonials", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestUnsubscribeUnknownToken(t *testing.T) {
	db, mock := newDB(t)

	rec := postJSON(newForms(db).Unsubscribe, "/api/newsletter/unsubscribe", `{"token":"not-a-uuid"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeHidesToken(t *testing.T) {
	db, mock := newDB(t)
	now := time.Now()
	mock.ExpectExec("ON DUPLICATE KEY UPDATE").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM newsletter_subscribers WHERE email").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "unsubscribe_token", "created_at", "updated_at"}).
			AddRow(1, "reader@example.com", "subscribed", "2f6c4c1e-0c39-4a43-9a0d-6a9b8f7e1d11", now, now))

	rec := postJSON(newForms(db).Subscribe, "/api/newsletter/subscribe", `{"email":"reader@example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "2f6c4c1e")
}

func TestAdminCreateTourValidation(t *testing.T) {
	db, mock := newDB(t)
	h := &AdminHandler{Tours: repository.NewTourRepo(db)}

	rec := postJSON(h.CreateTour, "/api/admin/tours",
		`{"title":"Goa","region":"","duration_days":3,"base_price":"-5","itinerary":[{"day":2,"title":"Beach"}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "region")
	assert.Contains(t, fields, "base_price")
	assert.Contains(t, fields, "itinerary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteTourWithBookings(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectExec("DELETE FROM tours WHERE id").WithArgs(9).
		WillReturnError(&mysqlReferenced)
	h := &AdminHandler{Tours: repository.NewTourRepo(db)}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/admin/tours/9", strings.NewReader("")), rec)
	c.SetParamNames("id")
	c.SetParamValues("9")
	require.NoError(t, h.DeleteTour(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminBadID(t *testing.T) {
	h := &AdminHandler{}
	rec := get(h.GetTour, "/api/admin/tours/abc", "id", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
