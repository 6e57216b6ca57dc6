// Package config provides configuration parsing and validation for the
// notify-api and reminder-dispatcher binaries.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // tour time zones must resolve in minimal containers

	"github.com/afikmenashe/roadcrew/internal/sender/validation"
)

// Email provider names accepted by -email-primary.
const (
	EmailProviderSES    = "ses"
	EmailProviderResend = "resend"
)

// API holds all configuration parameters for the notify-api.
type API struct {
	HTTPPort           string
	KafkaBrokers       string
	ChangesTopic       string
	LiveGroupID        string
	PostgresDSN        string
	RedisAddr          string
	Timezone           string
	DefaultCountryCode string

	// E-mail copies of CRITICAL changes. Empty EmailFrom disables them.
	EmailFrom    string
	EmailPrimary string
	AWSRegion    string
	ResendAPIKey string
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *API) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.ChangesTopic == "" {
		return fmt.Errorf("changes-topic cannot be empty")
	}
	if c.LiveGroupID == "" {
		return fmt.Errorf("live-group-id cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if err := validateCountryCode(c.DefaultCountryCode); err != nil {
		return err
	}
	if c.EmailFrom != "" {
		if !validation.IsEmail(c.EmailFrom) {
			return fmt.Errorf("email-from must be a bare address, got %q", c.EmailFrom)
		}
		if c.EmailPrimary != EmailProviderSES && c.EmailPrimary != EmailProviderResend {
			return fmt.Errorf("email-primary must be %q or %q", EmailProviderSES, EmailProviderResend)
		}
	}
	return nil
}

// Location returns the tour-local time zone. Call after Validate.
func (c *API) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Dispatcher holds all configuration parameters for the reminder-dispatcher.
type Dispatcher struct {
	PostgresDSN        string
	RedisAddr          string
	Timezone           string
	DefaultCountryCode string

	Interval  time.Duration
	Tolerance time.Duration
	Lookahead time.Duration
	Retention time.Duration
	// Once runs a single tick and exits, for an external scheduler.
	Once bool

	SMSGatewayURL    string
	SMSToken         string
	SMSSignature     string
	SMSTimeout       time.Duration
	SMSRatePerSecond float64
	SMSBurst         int
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Dispatcher) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if err := validateCountryCode(c.DefaultCountryCode); err != nil {
		return err
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive")
	}
	if c.Lookahead <= 0 {
		return fmt.Errorf("lookahead must be positive")
	}
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	if c.SMSGatewayURL == "" {
		return fmt.Errorf("sms-gateway-url cannot be empty")
	}
	u, err := url.Parse(c.SMSGatewayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("sms-gateway-url must be an http(s) URL, got %q", c.SMSGatewayURL)
	}
	if c.SMSTimeout <= 0 {
		return fmt.Errorf("sms-timeout must be positive")
	}
	if c.SMSRatePerSecond < 0 {
		return fmt.Errorf("sms-rate cannot be negative")
	}
	return nil
}

// Location returns the tour-local time zone. Call after Validate.
func (c *Dispatcher) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validateCountryCode(code string) error {
	if code == "" {
		return nil
	}
	digits := strings.TrimPrefix(code, "+")
	if digits == "" || len(digits) > 3 || digits[0] == '0' {
		return fmt.Errorf("invalid default-country-code %q", code)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid default-country-code %q", code)
		}
	}
	return nil
}
