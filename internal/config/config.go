package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	CORS         CORSConfig
	Hours        HoursConfig
	Notification NotificationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// HoursConfig controls the background aggregation jobs
type HoursConfig struct {
	RecomputeInterval time.Duration
	ReconcileInterval time.Duration
	RecomputeWorkers  int
}

type NotificationConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	// Retention is how long read notifications are kept; zero keeps them forever
	Retention time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		slog.Warn("No .env file found, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "staff_hours"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// Staff hours jobs
	recomputeInterval, err := getEnvDuration("HOURS_RECOMPUTE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	reconcileInterval, err := getEnvDuration("HOURS_RECONCILE_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	recomputeWorkers, err := getEnvInt("HOURS_RECOMPUTE_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	config.Hours = HoursConfig{
		RecomputeInterval: recomputeInterval,
		ReconcileInterval: reconcileInterval,
		RecomputeWorkers:  recomputeWorkers,
	}

	// Notification workers
	notifWorkers, err := getEnvInt("NOTIFICATION_WORKER_COUNT", 2)
	if err != nil {
		return nil, err
	}
	notifQueue, err := getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	notifBatch, err := getEnvInt("NOTIFICATION_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	notifFlush, err := getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	notifRetention, err := getEnvDuration("NOTIFICATION_RETENTION", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}

	config.Notification = NotificationConfig{
		WorkerCount:   notifWorkers,
		QueueSize:     notifQueue,
		BatchSize:     notifBatch,
		FlushInterval: notifFlush,
		Retention:     notifRetention,
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
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Hours.RecomputeInterval <= 0 {
		return fmt.Errorf("HOURS_RECOMPUTE_INTERVAL must be positive")
	}
	if c.Hours.ReconcileInterval <= 0 {
		return fmt.Errorf("HOURS_RECONCILE_INTERVAL must be positive")
	}
	if c.Hours.RecomputeWorkers < 1 {
		return fmt.Errorf("HOURS_RECOMPUTE_WORKERS must be at least 1")
	}
	if c.Notification.Retention < 0 {
		return fmt.Errorf("NOTIFICATION_RETENTION cannot be negative")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
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

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
