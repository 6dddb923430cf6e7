package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strconv"
    "strings"
)

// Storage backends accepted in STORE.
const (
    StoreMySQL  = "mysql"
    StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // APP_ENV (dev, test, prod)
    Port           string // APP_PORT
    Store          string // STORE: mysql (default) or memory
    DBUser         string // DB_USER
    DBPass         string // DB_PASS (optional)
    DBHost         string // DB_HOST
    DBPort         string // DB_PORT
    DBName         string // DB_NAME
    DBMigrate      bool   // DB_MIGRATE: create tables at startup
    JWTSecret      string // JWT_SECRET
    AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
    RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
    BcryptCost     int    // BCRYPT_COST
    RabbitURL      string // RABBITMQ_URL (empty disables events)
    Consumer       bool   // RESERVA_CONSUMER: run the reservation log consumer
    ReservaLogDir  string // RESERVA_LOG_DIR
    Redis          RedisConfig
    RateLimit      RateLimitConfig
}

// IsDev reports whether the application runs in development mode.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// Load reads configuration values from environment variables.  Every
// missing or malformed required variable is collected and reported in
// a single error.  With STORE=memory the DB_* variables are optional.
func Load() (Config, error) {
    var missing []string
    l := loader{missing: &missing}

    cfg := Config{
        Env:           l.must("APP_ENV"),
        Port:          l.must("APP_PORT"),
        Store:         strings.ToLower(envStr("STORE", StoreMySQL)),
        DBPass:        os.Getenv("DB_PASS"),
        DBMigrate:     envBool("DB_MIGRATE", false),
        JWTSecret:     l.must("JWT_SECRET"),
        RabbitURL:     os.Getenv("RABBITMQ_URL"),
        Consumer:      envBool("RESERVA_CONSUMER", false),
        ReservaLogDir: envStr("RESERVA_LOG_DIR", "logs"),
        Redis:         LoadRedisConfig(),
        RateLimit:     LoadRateLimitConfig(),
    }
    cfg.AccessTTLMin = l.mustInt("ACCESS_TOKEN_TTL_MIN")
    cfg.RefreshTTLDays = l.mustInt("REFRESH_TOKEN_TTL_DAYS")
    cfg.BcryptCost = l.mustInt("BCRYPT_COST")

    switch cfg.Store {
    case StoreMySQL:
        cfg.DBUser = l.must("DB_USER")
        cfg.DBHost = l.must("DB_HOST")
        cfg.DBPort = l.must("DB_PORT")
        cfg.DBName = l.must("DB_NAME")
    case StoreMemory:
    default:
        missing = append(missing, fmt.Sprintf("STORE (unknown backend %q)", cfg.Store))
    }

    if len(missing) > 0 {
        return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(missing, ", "))
    }
    return cfg, nil
}

type loader struct {
    missing *[]string
}

// must retrieves the value of a required environment variable and
// records its name when it is unset or empty.
func (l loader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        *l.missing = append(*l.missing, key)
    }
    return v
}

// mustInt is like must() but converts the value into an integer.
func (l loader) mustInt(key string) int {
    s := l.must(key)
    if s == "" {
        return 0
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        *l.missing = append(*l.missing, fmt.Sprintf("%s (invalid int %q)", key, s))
    }
    return n
}
