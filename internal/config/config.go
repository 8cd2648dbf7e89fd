package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppPort       string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int
	CookieSecure  bool
	CORSOrigins   string

	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	DBLogLevel           string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsChannel string
}

func Load() Config {
	return Config{
		AppPort:       get("APP_PORT", "8080"),
		DBDSN:         must("DATABASE_URL", "DB_DSN"),
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: getInt("JWT_EXPIRES_MIN", 10080),
		CookieSecure:  strings.EqualFold(get("COOKIE_SECURE", "false"), "true"),
		CORSOrigins:   get("CORS_ORIGINS", "*"),

		DBMaxOpenConns:       getInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:       getInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetimeMin: getInt("DB_CONN_MAX_LIFETIME_MIN", 30),
		DBLogLevel:           strings.ToLower(get("DB_LOG_LEVEL", "warn")),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		EventsChannel: get("EVENTS_CHANNEL", "truber:job-requests"),
	}
}

// AllowsAnyOrigin reports whether CORS is configured as a wildcard. Cookies
// cannot be shared with a wildcard origin.
func (c Config) AllowsAnyOrigin() bool {
	return strings.TrimSpace(c.CORSOrigins) == "*"
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

// must returns the first non-empty variable among keys.
func must(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	panic("missing env: " + strings.Join(keys, " or "))
}
