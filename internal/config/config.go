package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The two token secrets are deliberately separate: an
// access token must never verify against the refresh secret or vice versa.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	AccessSecret   string // secret used to sign access tokens
	RefreshSecret  string // secret used to sign refresh tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	AWSBucket      string // S3 bucket that stores avatar images (optional)
	AWSRegion      string // AWS region for the avatar bucket (optional)
}

// Load reads configuration from the environment and validates it. Validation
// happens once at startup: a missing secret or malformed value is returned as
// an error so the caller can refuse to start, rather than crashing on the
// first request that needs the value.
func Load() (Config, error) {
	cfg := Config{
		DBPass:    os.Getenv("DB_PASS"), // empty password allowed
		AWSBucket: os.Getenv("AWS_BUCKET_NAME"),
		AWSRegion: os.Getenv("AWS_REGION"),
	}

	var err error
	if cfg.Env, err = need("APP_ENV"); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = need("APP_PORT"); err != nil {
		return Config{}, err
	}
	if cfg.DBUser, err = need("DB_USER"); err != nil {
		return Config{}, err
	}
	if cfg.DBHost, err = need("DB_HOST"); err != nil {
		return Config{}, err
	}
	if cfg.DBPort, err = need("DB_PORT"); err != nil {
		return Config{}, err
	}
	if cfg.DBName, err = need("DB_NAME"); err != nil {
		return Config{}, err
	}
	if cfg.AccessSecret, err = need("ACCESS_TOKEN_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshSecret, err = need("REFRESH_TOKEN_SECRET"); err != nil {
		return Config{}, err
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.AccessTTLMin, err = needInt("ACCESS_TOKEN_TTL_MIN"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTLDays, err = needInt("REFRESH_TOKEN_TTL_DAYS"); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = needInt("BCRYPT_COST"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// need retrieves the value of a required environment variable and reports an
// error when it is unset or empty.
func need(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return v, nil
}

// needInt is like need() but converts the retrieved string into an integer.
func needInt(key string) (int, error) {
	s, err := need(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}
