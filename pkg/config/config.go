package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string
	DatabaseURL        string
	DatabaseAdminURL   string // Server-level DSN with no database selected; derived when empty
	AppEnv             string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string
	AutoMigrate        bool
	LogLevel           string

	TrackOrphanVisits   bool
	AnonymizeRemoteAddr bool

	Redis  RedisConfig
	Lock   LockConfig
	Matomo MatomoConfig
}

// RedisConfig is optional. Without an address, command locks fall back to a machine-wide mutex.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LockConfig struct {
	TTL time.Duration
}

type MatomoConfig struct {
	Enabled  bool
	BaseURL  string
	SiteID   string
	APIToken string
	Retries  int
	Timeout  time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DatabaseAdminURL:   v.GetString("DATABASE_ADMIN_URL"),
		AppEnv:             v.GetString("APP_ENV"),
		BaseURL:            v.GetString("BASE_URL"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		FrontendURL:        v.GetString("FRONTEND_URL"),
		AllowedEmails:      splitList(v.GetString("ALLOWED_EMAILS")),
		AutoMigrate:        v.GetBool("AUTO_MIGRATE"),
		LogLevel:           v.GetString("LOG_LEVEL"),

		TrackOrphanVisits:   v.GetBool("TRACK_ORPHAN_VISITS"),
		AnonymizeRemoteAddr: v.GetBool("ANONYMIZE_REMOTE_ADDR"),

		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Lock: LockConfig{
			TTL: v.GetDuration("LOCK_TTL"),
		},
		Matomo: MatomoConfig{
			Enabled:  v.GetBool("MATOMO_ENABLED"),
			BaseURL:  v.GetString("MATOMO_BASE_URL"),
			SiteID:   v.GetString("MATOMO_SITE_ID"),
			APIToken: v.GetString("MATOMO_API_TOKEN"),
			Retries:  v.GetInt("MATOMO_RETRIES"),
			Timeout:  v.GetDuration("MATOMO_TIMEOUT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "file:db.sqlite")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback")
	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("FRONTEND_URL", "http://localhost:8080/dashboard")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TRACK_ORPHAN_VISITS", true)
	v.SetDefault("ANONYMIZE_REMOTE_ADDR", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", 5*time.Minute)
	v.SetDefault("MATOMO_ENABLED", false)
	v.SetDefault("MATOMO_RETRIES", 0)
	v.SetDefault("MATOMO_TIMEOUT", 10*time.Second)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
