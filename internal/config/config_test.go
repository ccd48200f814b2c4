package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":            "test",
		"APP_PORT":           "8080",
		"DB_USER":            "tours",
		"DB_HOST":            "127.0.0.1",
		"DB_PORT":            "3306",
		"DB_NAME":            "tours",
		"JWT_SECRET":         "jwt-secret",
		"PAYMENT_KEY_ID":     "rzp_test_key",
		"PAYMENT_KEY_SECRET": "rzp_test_secret",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 7, cfg.RefreshTTLDays)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, "logs/booking.log", cfg.BookingLogPath)

	assert.Equal(t, "razorpay", cfg.Payment.Gateway)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, "rzp_test_secret", cfg.Payment.KeySecret)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@broker:5672/")
	t.Setenv("AMQP_URL", "amqp://ignored/")

	cfg := Load()

	assert.Equal(t, 4, cfg.BcryptCost)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.AMQPURL)
}

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, time.Minute, cfg.RefillInterval)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()

	require.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, 60*time.Second, cfg.TTL)
	assert.True(t, cfg.PurgeOnWrite)
}

func TestLoadRedisConfigPrefersHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")

	assert.Equal(t, "redis:6380", LoadRedisConfig().Addr)
}
