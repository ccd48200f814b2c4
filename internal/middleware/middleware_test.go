package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/utils"
)

func anyArgs(_, _ []interface{}) error { return nil }

func serve(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	var seen uint64
	e.GET("/api/auth/me", func(c echo.Context) error {
		seen = c.Get("user_id").(uint64)
		return c.NoContent(http.StatusOK)
	}, JWTAuth("s3cret"), RequireRole("ADMIN"))

	admin, err := utils.NewAccessToken("s3cret", 9, "ADMIN", 5)
	require.NoError(t, err)
	editor, err := utils.NewAccessToken("s3cret", 10, "EDITOR", 5)
	require.NoError(t, err)
	forged, err := utils.NewAccessToken("other", 9, "ADMIN", 5)
	require.NoError(t, err)

	rec := serve(e, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/api/auth/me", map[string]string{"Authorization": "Bearer " + forged.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/api/auth/me", map[string]string{"Authorization": "Bearer " + editor.Token})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodGet, "/api/auth/me", map[string]string{"Authorization": "Bearer " + admin.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(9), seen)
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: 3 * time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucketAllowsAndBlocks(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.CustomMatch(anyArgs).ExpectEvalSha(tokenBucket.Hash(), []string{"rl:ip:192.0.2.1:route:POST /api/bookings/create-order"}).
		SetVal([]interface{}{int64(1), int64(1), int64(0)})
	mock.CustomMatch(anyArgs).ExpectEvalSha(tokenBucket.Hash(), []string{"rl:ip:192.0.2.1:route:POST /api/bookings/create-order"}).
		SetVal([]interface{}{int64(0), int64(0), int64(2500)})

	e := echo.New()
	e.POST("/api/bookings/create-order", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewTokenBucket(rateCfg(), rdb))

	hdr := map[string]string{echo.HeaderXRealIP: "192.0.2.1"}
	rec := serve(e, http.MethodPost, "/api/bookings/create-order", hdr)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(e, http.MethodPost, "/api/bookings/create-order", hdr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketFailsOpen(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.CustomMatch(anyArgs).ExpectEvalSha(tokenBucket.Hash(), []string{"rl:ip:192.0.2.1:route:POST /api/contact"}).
		SetErr(errors.New("connection refused"))

	e := echo.New()
	e.POST("/api/contact", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		NewTokenBucket(rateCfg(), rdb))

	rec := serve(e, http.MethodPost, "/api/contact", map[string]string{echo.HeaderXRealIP: "192.0.2.1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	rdb, mock := redismock.NewClientMock()

	e := echo.New()
	e.POST("/api/contact", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		NewTokenBucket(cfg, rdb))

	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/api/contact", nil).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
	req.Header.Set(echo.HeaderXRealIP, "198.51.100.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/newsletter/subscribe")

	cfg := rateCfg()
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:198.51.100.7", rateKey(cfg, c))
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:anon:route:POST /api/newsletter/subscribe", rateKey(cfg, c))
	c.Set("user_id", uint64(4))
	cfg.KeyStrategy = "ip_user"
	assert.Equal(t, "rl:ip:198.51.100.7:user:4", rateKey(cfg, c))
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
		PurgeOnWrite: true,
	}
}

func TestCacheHitServesStoredResponse(t *testing.T) {
	cfg := cacheCfg()
	rdb, mock := redismock.NewClientMock()
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`[{"slug":"goa"}]`))
	require.NoError(t, err)
	mock.ExpectGet(cacheKey(cfg, http.MethodGet, "/api/tours", "region=west")).SetVal(string(payload))

	called := false
	e := echo.New()
	e.GET("/api/tours", func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}, NewRedisCache(cfg, rdb))

	rec := serve(e, http.MethodGet, "/api/tours?region=west", nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `[{"slug":"goa"}]`, rec.Body.String())
}

func TestCacheMissStoresResponse(t *testing.T) {
	cfg := cacheCfg()
	key := cacheKey(cfg, http.MethodGet, "/api/gallery", "")
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(key).RedisNil()

	var stored []byte
	mock.CustomMatch(func(_, actual []interface{}) error {
		if len(actual) < 3 || actual[1] != key {
			return errors.New("unexpected set")
		}
		stored, _ = actual[2].([]byte)
		return nil
	}).ExpectSet(key, nil, cfg.TTL).SetVal("OK")

	e := echo.New()
	e.GET("/api/gallery", func(c echo.Context) error {
		return c.String(http.StatusOK, "pictures")
	}, NewRedisCache(cfg, rdb))

	rec := serve(e, http.MethodGet, "/api/gallery", nil)

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "pictures", rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
	status, hdr, body, ok := decodePayload(stored)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pictures", string(body))
	assert.Empty(t, hdr.Get("X-Cache"))
}

func TestCacheSkipsErrors(t *testing.T) {
	cfg := cacheCfg()
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey(cfg, http.MethodGet, "/api/tours/nowhere", "")).RedisNil()

	e := echo.New()
	e.GET("/api/tours/:slug", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}, NewRedisCache(cfg, rdb))

	rec := serve(e, http.MethodGet, "/api/tours/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKeysEachTourSeparately(t *testing.T) {
	cfg := cacheCfg()
	gulmarg := cacheKey(cfg, http.MethodGet, "/api/tours/gulmarg", "")
	pahalgam := cacheKey(cfg, http.MethodGet, "/api/tours/pahalgam", "")
	require.NotEqual(t, gulmarg, pahalgam)

	rdb, mock := redismock.NewClientMock()
	for _, key := range []string{gulmarg, pahalgam} {
		want := key
		mock.ExpectGet(want).RedisNil()
		mock.CustomMatch(func(_, actual []interface{}) error {
			if len(actual) < 2 || actual[1] != want {
				return errors.New("stored under the wrong key")
			}
			return nil
		}).ExpectSet(want, nil, cfg.TTL).SetVal("OK")
	}

	e := echo.New()
	e.GET("/api/tours/:slug", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"slug": c.Param("slug")})
	}, NewRedisCache(cfg, rdb))

	for _, slug := range []string{"gulmarg", "pahalgam"} {
		rec := serve(e, http.MethodGet, "/api/tours/"+slug, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), slug)
		assert.JSONEq(t, `{"slug":"`+slug+`"}`, rec.Body.String())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKeyIncludesQueryByDefault(t *testing.T) {
	cfg := cacheCfg()
	assert.NotEqual(t,
		cacheKey(cfg, http.MethodGet, "/api/tours", "region=west"),
		cacheKey(cfg, http.MethodGet, "/api/tours", "region=north"))
	cfg.KeyStrategy = "route"
	assert.Equal(t,
		cacheKey(cfg, http.MethodGet, "/api/tours", "region=west"),
		cacheKey(cfg, http.MethodGet, "/api/tours", "region=north"))
	assert.NotEqual(t,
		cacheKey(cfg, http.MethodGet, "/api/tours/goa", ""),
		cacheKey(cfg, http.MethodGet, "/api/tours/leh", ""))
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestPurgeCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectScan(0, "cache:*", 200).SetVal([]string{"cache:a", "cache:b"}, 7)
	mock.ExpectDel("cache:a", "cache:b").SetVal(2)
	mock.ExpectScan(7, "cache:*", 200).SetVal([]string{"cache:c"}, 0)
	mock.ExpectDel("cache:c").SetVal(1)

	n, err := PurgeCache(context.Background(), rdb, "cache")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeOnWriteOnlyAfterSuccessfulWrites(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectScan(0, "cache:*", 200).SetVal([]string{"cache:a"}, 0)
	mock.ExpectDel("cache:a").SetVal(1)

	e := echo.New()
	purge := PurgeOnWrite(cacheCfg(), rdb)
	e.PUT("/api/admin/tours/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, purge)
	e.DELETE("/api/admin/tours/:id", func(c echo.Context) error {
		return c.JSON(http.StatusConflict, echo.Map{"error": "tour has bookings"})
	}, purge)
	e.GET("/api/admin/tours", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, purge)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPut, "/api/admin/tours/1", nil).Code)
	assert.Equal(t, http.StatusConflict, serve(e, http.MethodDelete, "/api/admin/tours/1", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/admin/tours", nil).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestLogger(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	logrus.SetLevel(logrus.InfoLevel)

	var inHandler string
	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/api/destinations", func(c echo.Context) error {
		inHandler, _ = logging.FromContext(c.Request().Context()).Data["request_id"].(string)
		return c.NoContent(http.StatusOK)
	})

	rec := serve(e, http.MethodGet, "/api/destinations", nil)
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, inHandler)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "/api/destinations", entry.Data["route"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])

	rec = serve(e, http.MethodGet, "/api/destinations", map[string]string{echo.HeaderXRequestID: "abc123"})
	assert.Equal(t, "abc123", rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(e, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRecoverReturns500(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	e := echo.New()
	e.Use(RequestLogger(), Recover())
	e.GET("/boom", func(c echo.Context) error { panic("nil map") })
	e.GET("/fine", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := serve(e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	var panicked bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == "panic: nil map" {
			panicked = true
			assert.NotEmpty(t, entry.Data["request_id"])
		}
	}
	assert.True(t, panicked)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/fine", nil).Code)
}
