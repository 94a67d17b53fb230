package config

import (
    "context"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/go-playground/assert/v2"

    "github.com/iliyamo/rental-listings/internal/booking"
)

func setRequired(t *testing.T) {
    t.Setenv("APP_ID", "rentals")
    t.Setenv("ADMIN_USERNAME", "operator")
    t.Setenv("ADMIN_PASSWORD", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
    setRequired(t)
    t.Setenv("CONFIG_FILE", "")
    t.Setenv("STORE_DRIVER", "")

    cfg, err := Load()
    assert.Equal(t, err, nil)
    assert.Equal(t, "rentals", cfg.AppID)
    assert.Equal(t, DriverMemory, cfg.StoreDriver)
    assert.Equal(t, 2500*time.Millisecond, cfg.BookingResetDelay)
    assert.Equal(t, booking.DefaultResetDelay, defaults().BookingResetDelay)
    assert.Equal(t, 30*time.Minute, cfg.ClientSessionTTL)
    assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadReportsAllMissing(t *testing.T) {
    t.Setenv("APP_ID", "")
    t.Setenv("ADMIN_USERNAME", "")
    t.Setenv("ADMIN_PASSWORD", "")
    t.Setenv("CONFIG_FILE", "")
    t.Setenv("STORE_DRIVER", "mysql")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_HOST", "")
    t.Setenv("DB_NAME", "")

    _, err := Load()
    assert.NotEqual(t, err, nil)
    for _, key := range []string{"APP_ID", "ADMIN_USERNAME", "ADMIN_PASSWORD", "DB_USER", "DB_HOST", "DB_NAME"} {
        assert.Equal(t, true, strings.Contains(err.Error(), key))
    }
}

func TestLoadYAMLOverlayThenEnv(t *testing.T) {
    setRequired(t)
    path := filepath.Join(t.TempDir(), "app.yaml")
    yml := "port: \"9090\"\nstore_driver: mongo\nmongo_uri: mongodb://localhost:27017\nmongo_db: rentals\npoll_interval: 5s\ncors_origins:\n  - https://a.example\n"
    assert.Equal(t, os.WriteFile(path, []byte(yml), 0o600), nil)
    t.Setenv("CONFIG_FILE", path)
    t.Setenv("STORE_DRIVER", "")
    t.Setenv("APP_PORT", "7070")
    t.Setenv("CORS_ORIGINS", "")

    cfg, err := Load()
    assert.Equal(t, err, nil)
    assert.Equal(t, "7070", cfg.Port)
    assert.Equal(t, DriverMongo, cfg.StoreDriver)
    assert.Equal(t, "rentals", cfg.MongoDB)
    assert.Equal(t, 5*time.Second, cfg.PollInterval)
    assert.Equal(t, []string{"https://a.example"}, cfg.CORSOrigins)
}

func TestValidateUnknownDriver(t *testing.T) {
    c := defaults()
    c.AppID, c.AdminUsername, c.AdminPassword = "a", "b", "c"
    c.StoreDriver = "sqlite"
    assert.NotEqual(t, c.Validate(), nil)

    c.StoreDriver = DriverMemory
    c.IdentityToken = "tok"
    assert.NotEqual(t, c.Validate(), nil)
    c.IdentitySecret = "sec"
    assert.Equal(t, c.Validate(), nil)
}

func TestRateLimitAndRedisSettings(t *testing.T) {
    setRequired(t)
    t.Setenv("CONFIG_FILE", "")
    t.Setenv("STORE_DRIVER", "")
    t.Setenv("RATE_LIMIT_ENABLED", "")
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_PREFIX", "")
    t.Setenv("REDIS_ADDR", "")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_TLS", "on")

    cfg, err := Load()
    assert.Equal(t, err, nil)
    assert.Equal(t, true, cfg.RateLimit.Enabled)
    assert.Equal(t, 1, cfg.RateLimit.Capacity)
    assert.Equal(t, 10*time.Second, cfg.RateLimit.RefillInterval)
    assert.Equal(t, 50*time.Second, cfg.RateLimit.TTL)
    assert.Equal(t, "rl", cfg.RateLimit.Prefix)
    assert.Equal(t, "cache:6380", cfg.Redis.Addr)
    assert.Equal(t, true, cfg.Redis.TLS)
}

func TestNewRedisClientWithoutAddress(t *testing.T) {
    rdb, err := NewRedisClient(context.Background(), Redis{})
    assert.NotEqual(t, err, nil)
    assert.Equal(t, true, rdb == nil)
}
