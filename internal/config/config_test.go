package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
    t.Helper()
    for k, v := range map[string]string{
        "APP_ENV":                "test",
        "APP_PORT":               "8080",
        "JWT_SECRET":             "secret",
        "ACCESS_TOKEN_TTL_MIN":   "15",
        "REFRESH_TOKEN_TTL_DAYS": "7",
        "BCRYPT_COST":            "4",
    } {
        t.Setenv(k, v)
    }
}

func TestLoad_Memory(t *testing.T) {
    setBase(t)
    t.Setenv("STORE", "Memory")
    t.Setenv("RESERVA_CONSUMER", "true")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, StoreMemory, cfg.Store)
    assert.Equal(t, 15, cfg.AccessTTLMin)
    assert.Equal(t, 4, cfg.BcryptCost)
    assert.True(t, cfg.Consumer)
    assert.Equal(t, "logs", cfg.ReservaLogDir)
    assert.False(t, cfg.IsDev())
}

func TestLoad_MySQLRequiresDB(t *testing.T) {
    setBase(t)
    t.Setenv("STORE", "")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_HOST", "localhost")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "DB_USER")
    assert.Contains(t, err.Error(), "DB_NAME")
    assert.NotContains(t, err.Error(), "DB_HOST")
}

func TestLoad_InvalidInt(t *testing.T) {
    setBase(t)
    t.Setenv("STORE", "memory")
    t.Setenv("BCRYPT_COST", "diez")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoad_UnknownStore(t *testing.T) {
    setBase(t)
    t.Setenv("STORE", "postgres")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "STORE")
}

func TestLoadRateLimitConfig(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "10")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_ENABLED", "off")

    rl := LoadRateLimitConfig()
    assert.False(t, rl.Enabled)
    assert.Equal(t, 10, rl.Capacity)
    assert.Equal(t, 1, rl.RefillTokens)
    assert.Equal(t, 2*time.Second, rl.RefillInterval)
    assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "1")

    rc := LoadRedisConfig()
    assert.Equal(t, "cache:6380", rc.Addr)
    assert.Equal(t, 2, rc.DB)
    assert.True(t, rc.TLS)
}
