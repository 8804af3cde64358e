package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv() {
	c.APIKey = os.Getenv("ANTHROPIC_API_KEY")

	if v := os.Getenv("OVERTIME_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := getEnvInt("OVERTIME_PORT"); v > 0 {
		c.API.Port = v
	}
	if v := os.Getenv("OVERTIME_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Sim.Seed = seed
		}
	}
	if v := os.Getenv("OVERTIME_PHONE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Phone.Interval = d
		}
	}

	switch os.Getenv("OVERTIME_DIFFICULTY") {
	case "casual":
		c.Casual()
	case "hard":
		c.Hard()
	}
}

// Casual softens the stress model.
func (c *Config) Casual() {
	c.Economy.BaseStressRate /= 2
	c.Economy.PhoneStressRate /= 2
	c.Economy.TerminalPenalty = 15
	c.Phone.Interval = c.Phone.Interval * 3 / 2
}

// Hard sharpens the stress model.
func (c *Config) Hard() {
	c.Economy.BaseStressRate *= 2
	c.Economy.PhoneStressRate *= 1.5
	c.Economy.TaskAttempts = 3
	c.Phone.Interval = c.Phone.Interval * 2 / 3
}

func getEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
