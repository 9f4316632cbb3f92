// Package config reads service settings from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
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
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	HTTPAddr    string

	StoreBackend string
	DataFile     string
	DatabaseURL  string

	RedisAddr string
	LockTTL   time.Duration

	AdultAge int

	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceSampling   float64
	ShutdownTimeout time.Duration
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. A missing file is not an error.
func LoadFrom(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", dotenv, err)
		}
	}

	cfg := Config{
		ServiceName:  getenv("SERVICE_NAME", "storefront"),
		Env:          getenv("ENV", "dev"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		StoreBackend: getenv("STORE_BACKEND", BackendFile),
		DataFile:     getenv("DATA_FILE", "data.json"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.LockTTL, err = duration("LOCK_TTL", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = duration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.AdultAge, err = integer("ADULT_AGE", 18); err != nil {
		return Config{}, err
	}
	if cfg.OTLPInsecure, err = boolean("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return Config{}, err
	}
	if cfg.TraceSampling, err = float("OTEL_TRACES_SAMPLER_ARG", 1); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendMemory:
		// Both keep their records per process, so a lock shared between
		// replicas would not make their writes consistent.
		if c.RedisAddr != "" {
			return fmt.Errorf("config: REDIS_ADDR needs the postgres backend, %s is single-process", c.StoreBackend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.AdultAge <= 0 {
		return fmt.Errorf("config: ADULT_AGE must be positive, got %d", c.AdultAge)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("config: LOCK_TTL must be positive, got %s", c.LockTTL)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func float(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func boolean(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
