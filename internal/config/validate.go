package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.Bot.ResponseFrequency < 0 || c.Bot.ResponseFrequency > 1 {
		errs = append(errs, fmt.Sprintf("BOT_RESPONSE_FREQUENCY must be in [0,1], got %v", c.Bot.ResponseFrequency))
	}
	if c.Bot.ProactiveFreq < 0 || c.Bot.ProactiveFreq > 1 {
		errs = append(errs, fmt.Sprintf("BOT_PROACTIVE_FREQUENCY must be in [0,1], got %v", c.Bot.ProactiveFreq))
	}
	if c.Bot.Cooldown < 0 {
		errs = append(errs, "BOT_COOLDOWN must not be negative")
	}
	if c.Bot.ContextWindow < 1 {
		errs = append(errs, fmt.Sprintf("BOT_CONTEXT_WINDOW must be at least 1, got %d", c.Bot.ContextWindow))
	}

	switch c.Memory.Backend {
	case "postgres", "inmemory":
	default:
		errs = append(errs, fmt.Sprintf("MEMORY_BACKEND must be postgres or inmemory, got %q", c.Memory.Backend))
	}

	if c.Memory.Backend == "postgres" && c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required with the postgres backend")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	// Missing LLM key: the bot still works, classification falls back to
	// deterministic rules and replies skip smoothing. Warn only.
	if c.LLM.APIKey == "" {
		slog.Warn("LLM_API_KEY is empty, model-backed classification and smoothing are disabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
