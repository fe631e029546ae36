package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/coursecatalyst/identity/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultProfileCacheTTL = time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the identity service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis holding sessions, revocations, activations and the profile cache
	RedisURL string

	// Secrets for the three token families. Each family gets its own key
	// so a leaked key never compromises the others
	AccessSecret     string
	RefreshSecret    string
	ActivationSecret string

	// Token lifetimes; zero means the codec defaults
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration

	// How long cached public profiles live
	ProfileCacheTTL time.Duration

	// Mailgun credentials; when empty, verification codes are logged
	// instead of emailed (development mode only)
	MailgunKey    string
	MailgunDomain string
	MailgunFrom   string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		ProfileCacheTTL: defaultProfileCacheTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("bad duration %q: %w", value, err)
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":             setString(&c.ListenAddr),
		"DATABASE_URI":            setString(&c.DatabaseDSN),
		"REDIS_URL":               setString(&c.RedisURL),
		"ACCESS_TOKEN_SECRET":     setString(&c.AccessSecret),
		"REFRESH_TOKEN_SECRET":    setString(&c.RefreshSecret),
		"ACTIVATION_TOKEN_SECRET": setString(&c.ActivationSecret),
		"ACCESS_TOKEN_TTL":        setDuration(&c.AccessTTL),
		"REFRESH_TOKEN_TTL":       setDuration(&c.RefreshTTL),
		"ACTIVATION_TOKEN_TTL":    setDuration(&c.ActivationTTL),
		"PROFILE_CACHE_TTL":       setDuration(&c.ProfileCacheTTL),
		"MAILGUN_API_KEY":         setString(&c.MailgunKey),
		"MAILGUN_DOMAIN":          setString(&c.MailgunDomain),
		"MAILGUN_FROM":            setString(&c.MailgunFrom),
		"LOG_LEVEL":               setString(&c.LogLevel),
		"ENVIRONMENT":             setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("identity", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisURL, "redis", "r", c.RedisURL, "Redis connection URL")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate fails fast on anything the service can't run without.
// Secrets never get defaults: a guessable key is worse than no service
func (c *Config) Validate() error {
	required := map[string]string{
		"database DSN":            c.DatabaseDSN,
		"redis URL":               c.RedisURL,
		"access token secret":     c.AccessSecret,
		"refresh token secret":    c.RefreshSecret,
		"activation token secret": c.ActivationSecret,
	}

	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s must be configured", name)
		}
	}

	return nil
}
