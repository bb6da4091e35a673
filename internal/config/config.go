// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// RedisAddr is the address of a shared Redis instance used for rate
	// limiting across processes. When empty, an in-memory limiter is used.
	RedisAddr string

	// BaseURL is the public origin used when building temporary-link URLs.
	BaseURL string

	// AdminSecret is the HMAC key for admin bearer tokens and access cookies.
	AdminSecret string

	// RateLimitMax is the number of failed password attempts allowed per
	// resource slug within one window.
	RateLimitMax int

	// RateLimitWindowMinutes is the width of the rate-limit window.
	RateLimitWindowMinutes int

	// CookieMaxAgeDays is the hard cap on access-cookie lifetime.
	CookieMaxAgeDays int

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.RedisAddr, "r", "", "redis address for shared rate limiting")
	flag.StringVar(&options.BaseURL, "base-url", "http://localhost:8080", "public origin for temp-link URLs")
	flag.StringVar(&options.AdminSecret, "secret", "", "HMAC secret for admin tokens and cookies")
	flag.IntVar(&options.RateLimitMax, "rl-max", 5, "failed password attempts allowed per window")
	flag.IntVar(&options.RateLimitWindowMinutes, "rl-window", 15, "rate-limit window in minutes")
	flag.IntVar(&options.CookieMaxAgeDays, "cookie-days", 7, "hard cap on access cookie lifetime in days")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		options.RedisAddr = redisAddr
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if secret := os.Getenv("ADMIN_SECRET"); secret != "" {
		options.AdminSecret = secret
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			options.RateLimitMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			options.RateLimitWindowMinutes = n
		}
	}

	return options
}

// RateLimitWindow returns the configured window as a time.Duration.
func (o *Options) RateLimitWindow() time.Duration {
	return time.Duration(o.RateLimitWindowMinutes) * time.Minute
}

// CookieMaxAge returns the configured cookie cap as a time.Duration.
func (o *Options) CookieMaxAge() time.Duration {
	return time.Duration(o.CookieMaxAgeDays) * 24 * time.Hour
}
