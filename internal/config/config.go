// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `validate:"required,numeric"`

	DBDriver   string `validate:"oneof=pgx postgres"`
	DBHost     string `validate:"required"`
	DBPort     string `validate:"required,numeric"`
	DBUser     string `validate:"required"`
	DBPassword string
	DBName     string `validate:"required"`
	DBSSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`

	JWTSecret string        `validate:"required,min=16"`
	JWTTTL    time.Duration `validate:"gt=0"`

	GoogleTokenInfoURL string `validate:"required,url"`
	GoogleClientID     string `validate:"required"`

	CORSOrigins []string `validate:"min=1,dive,required"`
	LogLevel    string   `validate:"oneof=debug info warn error"`

	RecomputeTimeout  time.Duration `validate:"gt=0"`
	PublicWeight      float64       `validate:"gte=0,lte=1"`
	JuryWeight        float64       `validate:"gte=0,lte=1"`
	VoteRatePerMinute int           `validate:"gte=0"`
}

// Load reads an optional .env file and then the process environment.
// Values already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var err error
	cfg := Config{
		Port:               env("PORT", "8080"),
		DBDriver:           env("DB_DRIVER", "pgx"),
		DBHost:             env("DB_HOST", "localhost"),
		DBPort:             env("DB_PORT", "5432"),
		DBUser:             env("DB_USER", "postgres"),
		DBPassword:         getenv("DB_PASSWORD"),
		DBName:             env("DB_NAME", "anime_awards"),
		DBSSLMode:          env("DB_SSLMODE", "disable"),
		JWTSecret:          getenv("JWT_SECRET"),
		GoogleTokenInfoURL: env("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),
		GoogleClientID:     strings.TrimSpace(getenv("GOOGLE_CLIENT_ID")),
		CORSOrigins:        splitList(env("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:           strings.ToLower(env("LOG_LEVEL", "info")),
	}

	if cfg.JWTTTL, err = time.ParseDuration(env("JWT_TTL", "72h")); err != nil {
		return Config{}, fmt.Errorf("JWT_TTL: %w", err)
	}
	if cfg.RecomputeTimeout, err = time.ParseDuration(env("RESULTS_RECOMPUTE_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("RESULTS_RECOMPUTE_TIMEOUT: %w", err)
	}
	if cfg.PublicWeight, err = strconv.ParseFloat(env("SCORE_PUBLIC_WEIGHT", "0.6"), 64); err != nil {
		return Config{}, fmt.Errorf("SCORE_PUBLIC_WEIGHT: %w", err)
	}
	if cfg.JuryWeight, err = strconv.ParseFloat(env("SCORE_JURY_WEIGHT", "0.4"), 64); err != nil {
		return Config{}, fmt.Errorf("SCORE_JURY_WEIGHT: %w", err)
	}
	if cfg.VoteRatePerMinute, err = strconv.Atoi(env("VOTE_RATE_PER_MINUTE", "30")); err != nil {
		return Config{}, fmt.Errorf("VOTE_RATE_PER_MINUTE: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN is the key/value connection string understood by both pgx and lib/pq.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
