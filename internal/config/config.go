package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Badger       BadgerConfig
	Monitor      MonitorConfig
	Location     LocationConfig
	Notification NotificationConfig
	Retention    RetentionConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

type BadgerConfig struct {
	Path       string
	InMemory   bool
	GCInterval time.Duration
}

type MonitorConfig struct {
	Interval time.Duration
}

// LocationConfig holds the two-tier acquisition settings
type LocationConfig struct {
	HighAccuracyTimeout time.Duration
	HighAccuracyMaxAge  time.Duration
	LowAccuracyTimeout  time.Duration
	LowAccuracyMaxAge   time.Duration
	HighAccuracyMeters  float64
	DevHosts            []string
}

type NotificationConfig struct {
	Retention int
}

type RetentionConfig struct {
	ActivityDays int
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Debug("No .env file found, using process environment")
	}

	var p parser
	config := &Config{}

	config.App = AppConfig{
		Port:               p.int("APP_PORT", 8080),
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.int("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(p.int("DB_MAX_CONNS", 10)),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.duration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
	}

	config.Badger = BadgerConfig{
		Path:       getEnv("BADGER_PATH", "./data/attendance"),
		InMemory:   p.bool("BADGER_IN_MEMORY", false),
		GCInterval: p.duration("BADGER_GC_INTERVAL", 10*time.Minute),
	}

	config.Monitor = MonitorConfig{
		Interval: p.duration("MONITOR_INTERVAL", 30*time.Second),
	}

	config.Location = LocationConfig{
		HighAccuracyTimeout: p.duration("LOCATION_HIGH_TIMEOUT", 20*time.Second),
		HighAccuracyMaxAge:  p.duration("LOCATION_HIGH_MAX_AGE", 60*time.Second),
		LowAccuracyTimeout:  p.duration("LOCATION_LOW_TIMEOUT", 25*time.Second),
		LowAccuracyMaxAge:   p.duration("LOCATION_LOW_MAX_AGE", 5*time.Minute),
		HighAccuracyMeters:  p.float("LOCATION_HIGH_ACCURACY_METERS", 100),
		DevHosts:            getEnvSlice("LOCATION_DEV_HOSTS"),
	}

	config.Notification = NotificationConfig{
		Retention: p.int("NOTIFICATION_RETENTION", 100),
	}

	config.Retention = RetentionConfig{
		ActivityDays: p.int("ACTIVITY_RETENTION_DAYS", 90),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if !c.Badger.InMemory && c.Badger.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY is set")
	}
	if c.Monitor.Interval < time.Second {
		return fmt.Errorf("MONITOR_INTERVAL must be at least 1s")
	}
	if c.Location.HighAccuracyTimeout <= 0 || c.Location.LowAccuracyTimeout <= 0 {
		return fmt.Errorf("location timeouts must be positive")
	}
	if c.Notification.Retention <= 0 {
		return fmt.Errorf("NOTIFICATION_RETENTION must be positive")
	}
	if c.Retention.ActivityDays <= 0 {
		return fmt.Errorf("ACTIVITY_RETENTION_DAYS must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ManualPunchTimeout is the longest a manual punch can wait on the device.
func (c *Config) ManualPunchTimeout() time.Duration {
	return c.Location.HighAccuracyTimeout + c.Location.LowAccuracyTimeout
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// parser collects conversion errors so every bad key is reported at once.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64)), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}
