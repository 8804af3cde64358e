// Package config loads runtime configuration: YAML on top of defaults, then
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/world"
)

// Config is the full runtime configuration.
type Config struct {
	Sim      Sim               `yaml:"sim"`
	Economy  economy.Rules     `yaml:"economy"`
	Movement agents.MoveConfig `yaml:"movement"`
	World    world.GenConfig   `yaml:"world"`
	Phone    Phone             `yaml:"phone"`
	LLM      llm.Config        `yaml:"llm"`
	Content  Content           `yaml:"content"`
	Storage  Storage           `yaml:"storage"`
	API      API               `yaml:"api"`

	// APIKey comes from the environment only.
	APIKey string `yaml:"-"`
}

// Sim controls the tick loop and world seed.
type Sim struct {
	TickRate int      `yaml:"tick_rate"` // Ticks per second
	Seed     int64    `yaml:"seed"`      // 0 = random
	Prologue []string `yaml:"prologue"`
}

// Phone sets how often an idle phone rings.
type Phone struct {
	Interval time.Duration `yaml:"interval"`
}

// Content points at the optional news feed.
type Content struct {
	URL string `yaml:"url"`
}

// Storage configures the SQLite save file.
type Storage struct {
	Path  string `yaml:"path"`
	Queue int    `yaml:"queue"` // Buffered async writes
}

// API configures the HTTP listener.
type API struct {
	Port           int           `yaml:"port"`
	InputsPerMin   int           `yaml:"inputs_per_minute"` // Per client IP
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sim:      Sim{TickRate: 60},
		Economy:  economy.DefaultRules(),
		Movement: agents.DefaultMoveConfig(),
		World:    world.DefaultGenConfig(),
		Phone:    Phone{Interval: 40 * time.Second},
		LLM:      llm.DefaultConfig(),
		Storage:  Storage{Path: "data/overtime.db", Queue: 64},
		API: API{
			Port:           8080,
			InputsPerMin:   1200,
			StreamInterval: 100 * time.Millisecond,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("sim.tick_rate must be positive")
	case c.Economy.MaxStress <= 0:
		return fmt.Errorf("economy.max_stress must be positive")
	case c.Economy.BaseStressRate < 0 || c.Economy.PhoneStressRate < 0:
		return fmt.Errorf("economy stress rates must not be negative")
	case c.Economy.ShiftTicks == 0:
		return fmt.Errorf("economy.shift_ticks must be positive")
	case c.Economy.TaskAttempts <= 0:
		return fmt.Errorf("economy.task_attempts must be positive")
	case c.Movement.MoveDelay == 0:
		return fmt.Errorf("movement.move_delay_ticks must be positive")
	case c.Phone.Interval <= 0:
		return fmt.Errorf("phone.interval must be positive")
	case c.LLM.Timeout <= 0:
		return fmt.Errorf("llm.timeout must be positive")
	case c.API.Port <= 0 || c.API.Port > 65535:
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	case c.API.StreamInterval <= 0:
		return fmt.Errorf("api.stream_interval must be positive")
	}
	return nil
}
