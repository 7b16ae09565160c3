// Package config loads the scheduler's settings from environment variables.
// Every knob has a default and can be overridden without code changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBPath   string
	LogLevel string

	// Materialization horizon, how far ahead instances are created.
	HorizonDays int

	// Reminder selection and gating.
	LeadWindowMinutes int
	CooldownMinutes   int
	QuietHoursStart   string // "HH:MM" local time, empty disables quiet hours
	QuietHoursEnd     string

	// Tick cadences.
	FastTick time.Duration // reminder scan
	SlowTick time.Duration // materialization

	// When set, active instances overdue past the lead window are flipped
	// to expired.
	ExpireOverdue bool

	// Channel credentials.
	PostmarkToken   string
	FromEmail       string
	SMSGatewayURL   string
	SMSAPIKey       string
	SMSFromNumber   string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string

	// Base URL for links in reminder messages.
	BaseURL string
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		DBPath:          envString("CHORES_DB_PATH", "chores.db"),
		LogLevel:        envString("CHORES_LOG_LEVEL", "info"),
		QuietHoursStart: envString("CHORES_QUIET_HOURS_START", "22:00"),
		QuietHoursEnd:   envString("CHORES_QUIET_HOURS_END", "07:00"),
		PostmarkToken:   os.Getenv("CHORES_POSTMARK_TOKEN"),
		FromEmail:       envString("CHORES_FROM_EMAIL", "noreply@localhost"),
		SMSGatewayURL:   os.Getenv("CHORES_SMS_GATEWAY_URL"),
		SMSAPIKey:       os.Getenv("CHORES_SMS_API_KEY"),
		SMSFromNumber:   os.Getenv("CHORES_SMS_FROM_NUMBER"),
		VAPIDPublicKey:  os.Getenv("CHORES_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CHORES_VAPID_PRIVATE_KEY"),
		PushSubscriber:  envString("CHORES_PUSH_SUBSCRIBER", "mailto:noreply@localhost"),
		BaseURL:         envString("CHORES_BASE_URL", "http://localhost:8080"),
	}

	var err error
	if cfg.HorizonDays, err = envInt("CHORES_HORIZON_DAYS", 14); err != nil {
		return Config{}, err
	}
	if cfg.LeadWindowMinutes, err = envInt("CHORES_LEAD_WINDOW_MINUTES", 60); err != nil {
		return Config{}, err
	}
	if cfg.CooldownMinutes, err = envInt("CHORES_COOLDOWN_MINUTES", 120); err != nil {
		return Config{}, err
	}
	if cfg.FastTick, err = envDuration("CHORES_FAST_TICK", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SlowTick, err = envDuration("CHORES_SLOW_TICK", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ExpireOverdue, err = envBool("CHORES_EXPIRE_OVERDUE", false); err != nil {
		return Config{}, err
	}

	if cfg.HorizonDays < 1 {
		return Config{}, fmt.Errorf("CHORES_HORIZON_DAYS must be >= 1, got %d", cfg.HorizonDays)
	}
	if cfg.FastTick <= 0 || cfg.SlowTick <= 0 {
		return Config{}, fmt.Errorf("tick intervals must be positive")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
