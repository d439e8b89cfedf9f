package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Float      FloatConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// FloatConfig holds the schedule feed (Float API) configuration
type FloatConfig struct {
	BaseURL   string
	APIToken  string
	Timeout   time.Duration
	PageSize  int
	UserAgent string
}

// AttendanceConfig holds the defaults applied to tenants without stored settings
type AttendanceConfig struct {
	Timezone             string
	GeofenceRadiusMeters decimal.Decimal
	NoiseThresholdMeters decimal.Decimal
	ExpectedHoursPerDay  decimal.Decimal
	JobInterval          time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "site-attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Float configuration
	floatTimeout, err := time.ParseDuration(getEnv("FLOAT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FLOAT_TIMEOUT: %w", err)
	}
	floatPageSize, err := strconv.Atoi(getEnv("FLOAT_PAGE_SIZE", "200"))
	if err != nil {
		return nil, fmt.Errorf("invalid FLOAT_PAGE_SIZE: %w", err)
	}

	config.Float = FloatConfig{
		BaseURL:   getEnv("FLOAT_BASE_URL", "https://api.float.com"),
		APIToken:  getEnv("FLOAT_API_TOKEN", ""),
		Timeout:   floatTimeout,
		PageSize:  floatPageSize,
		UserAgent: getEnv("FLOAT_USER_AGENT", "site-attendance (ops@cmlabs.co)"),
	}

	// Attendance defaults
	radius, err := decimal.NewFromString(getEnv("GEOFENCE_RADIUS_METERS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOFENCE_RADIUS_METERS: %w", err)
	}
	noise, err := decimal.NewFromString(getEnv("NOISE_THRESHOLD_METERS", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOISE_THRESHOLD_METERS: %w", err)
	}
	expected, err := decimal.NewFromString(getEnv("EXPECTED_HOURS_PER_DAY", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPECTED_HOURS_PER_DAY: %w", err)
	}
	jobInterval, err := time.ParseDuration(getEnv("ATTENDANCE_JOB_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_JOB_INTERVAL: %w", err)
	}

	config.Attendance = AttendanceConfig{
		Timezone:             getEnv("DEFAULT_TIMEZONE", "Asia/Jakarta"),
		GeofenceRadiusMeters: radius,
		NoiseThresholdMeters: noise,
		ExpectedHoursPerDay:  expected,
		JobInterval:          jobInterval,
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
	if c.Float.APIToken == "" {
		return fmt.Errorf("FLOAT_API_TOKEN is required")
	}
	if c.Float.PageSize <= 0 {
		return fmt.Errorf("FLOAT_PAGE_SIZE must be positive")
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE is invalid: %w", err)
	}
	if !c.Attendance.ExpectedHoursPerDay.IsPositive() {
		return fmt.Errorf("EXPECTED_HOURS_PER_DAY must be positive")
	}
	if c.Attendance.JobInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_JOB_INTERVAL must be positive")
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
