package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"farm_ops_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Env  string
	Port string

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBApplySchema     bool

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	RedisURL string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	AllowLegacyIDToken bool
	AttendanceTimezone string
	attendanceLocation *time.Location
}

const devJWTSecret = "dev-only-farm-ops-secret-change-me"

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                utils.Getenv("APP_ENV", "development"),
		Port:               utils.Getenv("PORT", "8080"),
		JWTSecret:          utils.Getenv("JWT_SECRET", ""),
		JWTIssuer:          utils.Getenv("JWT_ISSUER", "farm-ops-backend"),
		RedisURL:           utils.Getenv("REDIS_URL", ""),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:          utils.Getenv("LOG_FORMAT", "console"),
		AttendanceTimezone: utils.Getenv("ATTENDANCE_TIMEZONE", "Local"),
	}

	cfg.DatabaseURL = utils.Getenv("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			utils.Getenv("DB_HOST", "localhost"),
			utils.Getenv("DB_PORT", "5432"),
			utils.Getenv("DB_USER", "farm_ops_user"),
			utils.Getenv("DB_PASSWORD", "farm_ops_password"),
			utils.Getenv("DB_NAME", "farm_ops_db"),
			utils.Getenv("DB_SSLMODE", "disable"),
		)
	}

	var err error
	if cfg.DBMaxOpenConns, err = utils.GetenvInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.DBMaxIdleConns, err = utils.GetenvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.DBConnMaxLifetime, err = utils.GetenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.DBApplySchema, err = utils.GetenvBool("DB_APPLY_SCHEMA", false); err != nil {
		return nil, fmt.Errorf("invalid DB_APPLY_SCHEMA: %w", err)
	}
	if cfg.TokenTTL, err = utils.GetenvDuration("TOKEN_TTL", utils.DefaultTokenTTL); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.AllowLegacyIDToken, err = utils.GetenvBool("AUTH_ALLOW_LEGACY_ID_TOKEN", false); err != nil {
		return nil, fmt.Errorf("invalid AUTH_ALLOW_LEGACY_ID_TOKEN: %w", err)
	}

	if origins := utils.Getenv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	} else {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("JWT_SECRET is not set")
		}
		cfg.JWTSecret = devJWTSecret
	}

	if cfg.attendanceLocation, err = time.LoadLocation(cfg.AttendanceTimezone); err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether insecure defaults are allowed.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "test")
}

// AttendanceLocation is the single time zone used to decide which calendar day a punch belongs to.
func (c *Config) AttendanceLocation() *time.Location {
	if c.attendanceLocation == nil {
		return time.Local
	}
	return c.attendanceLocation
}
