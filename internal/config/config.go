package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	AnnounceTime   string // HH:MM, local time of the daily birthday check
	DefaultChannel string // announcement fallback when no channel is configured
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AnnounceTime:   strings.TrimSpace(os.Getenv("ANNOUNCE_TIME")),
		DefaultChannel: strings.TrimSpace(os.Getenv("DEFAULT_CHANNEL")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "birthdays.db"
	}

	if cfg.AnnounceTime == "" {
		cfg.AnnounceTime = "09:00"
	}
	if err := validateTime(cfg.AnnounceTime); err != nil {
		return cfg, err
	}

	if cfg.DefaultChannel == "" {
		cfg.DefaultChannel = "general"
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func validateTime(timeStr string) error {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid ANNOUNCE_TIME %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour in ANNOUNCE_TIME %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid minute in ANNOUNCE_TIME %q", timeStr)
	}
	return nil
}
