package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	Port       string
	DBDriver   string // "postgres" or "sqlite"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret string
	JWTExpiry time.Duration

	RedisAddr         string
	DashboardCacheTTL time.Duration

	AdminEmail      string
	AdminPassword   string
	AdminFirstName  string
	AdminLastName   string
	LoginRatePerMin int
}

func Load() *Config {
	return &Config{
		Port:       getenv("PORT", "8080"),
		DBDriver:   getenv("DB_DRIVER", "postgres"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "college_portal"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
		SQLitePath: getenv("SQLITE_PATH", "college_portal.db"),

		JWTSecret: getenv("JWT_SECRET", "supersecret_change_me"),
		JWTExpiry: durationEnv("JWT_EXPIRES_IN", 60*time.Minute),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		DashboardCacheTTL: durationEnv("DASHBOARD_CACHE_TTL", 30*time.Second),

		AdminEmail:      getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:   getenv("ADMIN_PASSWORD", "admin123"),
		AdminFirstName:  getenv("ADMIN_FIRST_NAME", "Portal"),
		AdminLastName:   getenv("ADMIN_LAST_NAME", "Administrator"),
		LoginRatePerMin: intEnv("LOGIN_RATE_PER_MIN", 30),
	}
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
		return fallback
	}
	return d
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var parsed int
	for _, ch := range v {
		if ch < '0' || ch > '9' {
			log.Printf("invalid int for %s, using fallback %d", key, fallback)
			return fallback
		}
		parsed = parsed*10 + int(ch-'0')
	}
	return parsed
}
