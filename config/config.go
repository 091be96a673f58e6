package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rustyeddy/drinkx/market"
	"github.com/rustyeddy/drinkx/pricing"
	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`
	Drinks  DrinksConfig  `json:"drinks" yaml:"drinks"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// ServerConfig contains the listener settings
type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr" env:"DRINKX_ADDR"`
	WSAddr      string   `json:"ws_addr" yaml:"ws_addr" env:"DRINKX_WS_ADDR"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" env:"DRINKX_CORS_ORIGINS" env-separator:","`
}

// PricingConfig contains the price movement parameters
type PricingConfig struct {
	PurchaseFactor float64 `json:"purchase_factor" yaml:"purchase_factor" env:"DRINKX_PURCHASE_FACTOR"`
	DecayFactor    float64 `json:"decay_factor" yaml:"decay_factor" env:"DRINKX_DECAY_FACTOR"`
	IdleThreshold  string  `json:"idle_threshold" yaml:"idle_threshold" env:"DRINKX_IDLE_THRESHOLD"` // e.g. "20s"
	TickInterval   string  `json:"tick_interval" yaml:"tick_interval" env:"DRINKX_TICK_INTERVAL"`    // e.g. "5s"
	HistorySize    int     `json:"history_size" yaml:"history_size" env:"DRINKX_HISTORY_SIZE"`
	MinPrice       float64 `json:"min_price,omitempty" yaml:"min_price,omitempty" env:"DRINKX_MIN_PRICE"`
}

// DrinksConfig says where the opening prices come from. Items wins over File.
type DrinksConfig struct {
	File  string        `json:"file,omitempty" yaml:"file,omitempty" env:"DRINKX_DRINKS_FILE"`
	Items []market.Seed `json:"items,omitempty" yaml:"items,omitempty"`
}

// JournalConfig contains audit journal parameters
type JournalConfig struct {
	Type string `json:"type" yaml:"type" env:"DRINKX_JOURNAL_TYPE"` // "none", "csv" or "sqlite"
	Path string `json:"path,omitempty" yaml:"path,omitempty" env:"DRINKX_JOURNAL_PATH"`
}

// IdleThresholdDuration parses the idle threshold
func (p PricingConfig) IdleThresholdDuration() (time.Duration, error) {
	return time.ParseDuration(p.IdleThreshold)
}

// TickIntervalDuration parses the decay tick interval
func (p PricingConfig) TickIntervalDuration() (time.Duration, error) {
	return time.ParseDuration(p.TickInterval)
}

// Rules converts the pricing section into engine rules.
func (p PricingConfig) Rules() (pricing.Rules, error) {
	idle, err := p.IdleThresholdDuration()
	if err != nil {
		return pricing.Rules{}, fmt.Errorf("pricing.idle_threshold: %w", err)
	}
	return pricing.Rules{
		PurchaseFactor: p.PurchaseFactor,
		DecayFactor:    p.DecayFactor,
		IdleThreshold:  idle,
		MinPrice:       p.MinPrice,
	}, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON), then applies
// DRINKX_* environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// FromEnv returns the defaults with DRINKX_* environment overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.WSAddr != "" && c.Server.WSAddr == c.Server.Addr && !ephemeral(c.Server.Addr) {
		return fmt.Errorf("server.ws_addr must differ from server.addr")
	}
	rules, err := c.Pricing.Rules()
	if err != nil {
		return err
	}
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	tick, err := c.Pricing.TickIntervalDuration()
	if err != nil {
		return fmt.Errorf("pricing.tick_interval: %w", err)
	}
	if tick <= 0 {
		return fmt.Errorf("pricing.tick_interval must be positive")
	}
	if c.Pricing.HistorySize <= 0 {
		return fmt.Errorf("pricing.history_size must be positive")
	}
	if c.Drinks.File == "" && len(c.Drinks.Items) == 0 {
		return fmt.Errorf("drinks.file or drinks.items is required")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// ephemeral reports whether addr asks the OS to pick a port.
func ephemeral(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	return err == nil && port == "0"
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":3000",
			WSAddr:      ":3001",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Pricing: PricingConfig{
			PurchaseFactor: 1.10,
			DecayFactor:    0.90,
			IdleThreshold:  "20s",
			TickInterval:   "5s",
			HistorySize:    market.DefaultHistoryLimit,
		},
		Drinks: DrinksConfig{
			File: "drinks.json",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
