package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type Config struct {
	App struct {
		Port      string
		LogLevel  string
		LogFormat string
	}
	StorageDriver string
	Postgres      PostgresConfig
	Auth          struct {
		Secret   string
		TokenTTL time.Duration
	}
	Admin struct {
		Email    string
		Password string
	}
	SeedCatalogPath string
}

// NewConfig loads an optional .env file and then reads the environment.
// Values already present in the environment win over the .env file.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.App.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.StorageDriver = getEnv("STORAGE_DRIVER", StorageDriverPostgres)
	if cfg.StorageDriver != StorageDriverPostgres && cfg.StorageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, cfg.StorageDriver)
	}

	var err error
	if cfg.StorageDriver == StorageDriverPostgres {
		if cfg.Postgres, err = loadPostgres(); err != nil {
			return nil, err
		}
	}

	cfg.Auth.Secret = os.Getenv("JWT_SECRET")
	if cfg.Auth.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Auth.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	if (cfg.Admin.Email == "") != (cfg.Admin.Password == "") {
		return nil, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	cfg.SeedCatalogPath = os.Getenv("SEED_CATALOG_PATH")

	return cfg, nil
}

func loadPostgres() (PostgresConfig, error) {
	pg := PostgresConfig{
		Host:           os.Getenv("DB_HOST"),
		Port:           os.Getenv("DB_PORT"),
		User:           os.Getenv("DB_USER"),
		Password:       os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
	}

	required := []struct {
		key   string
		value string
	}{
		{"DB_HOST", pg.Host},
		{"DB_PORT", pg.Port},
		{"DB_USER", pg.User},
		{"DB_PASSWORD", pg.Password},
		{"DB_NAME", pg.DBName},
	}
	for _, r := range required {
		if r.value == "" {
			return PostgresConfig{}, fmt.Errorf("%s is required", r.key)
		}
	}

	maxConns, err := getInt("DB_MAX_CONNS", 10)
	if err != nil {
		return PostgresConfig{}, err
	}
	minConns, err := getInt("DB_MIN_CONNS", 2)
	if err != nil {
		return PostgresConfig{}, err
	}
	if minConns > maxConns {
		return PostgresConfig{}, fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", minConns, maxConns)
	}
	pg.MaxConns = int32(maxConns)
	pg.MinConns = int32(minConns)

	if pg.MaxConnLifetime, err = getDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute); err != nil {
		return PostgresConfig{}, err
	}

	return pg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
