// Package config provides YAML-based configuration loading for Rentline.
// Secrets (bot tokens) are never stored in the YAML file; they come from the
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Rentline configuration, loaded from rentline.yaml.
type Config struct {
	Platform  string          `yaml:"platform"`   // "discord" or "slack"
	ChannelID string          `yaml:"channel_id"` // default channel for bot announcements
	AdminIDs  []string        `yaml:"admin_ids"`  // chat identities allowed to manage listings
	Database  DatabaseConfig  `yaml:"database"`
	Feed      FeedConfig      `yaml:"feed"`
	Digest    DigestConfig    `yaml:"digest"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig holds relational store settings. SQLite is the default;
// MySQL is available for multi-process deployments.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// FeedConfig controls the browse feed behavior.
type FeedConfig struct {
	PromoRate           float64 `yaml:"promo_rate"`             // probability of promo injection on "next"
	MaxPhotosPerListing int     `yaml:"max_photos_per_listing"` // cap on photos collected per listing
}

// DigestConfig controls the scheduled statistics digest posted to the
// announcement channel.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"` // 5-field cron expression
}

// DashboardConfig controls the read-only HTTP dashboard.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Secrets holds platform credentials resolved from the environment.
type Secrets struct {
	DiscordBotToken string
	SlackBotToken   string
	SlackAppToken   string
	MySQLPassword   string
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSecrets resolves platform credentials from the environment. A .env file
// in the working directory is loaded first if present; real environment
// variables take precedence over .env values.
func LoadSecrets() Secrets {
	godotenv.Load()
	return Secrets{
		DiscordBotToken: os.Getenv("DISCORD_BOT_TOKEN"),
		SlackBotToken:   os.Getenv("SLACK_BOT_TOKEN"),
		SlackAppToken:   os.Getenv("SLACK_APP_TOKEN"),
		MySQLPassword:   os.Getenv("MYSQL_PASSWORD"),
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/rentline.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "rentline"
	}
	if c.Feed.PromoRate == 0 {
		c.Feed.PromoRate = 0.20
	}
	if c.Feed.MaxPhotosPerListing == 0 {
		c.Feed.MaxPhotosPerListing = 10
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = "0 9 * * *"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Platform {
	case "discord", "slack":
	case "":
		errs = append(errs, "platform is required")
	default:
		errs = append(errs, fmt.Sprintf("platform must be \"discord\" or \"slack\", got %q", c.Platform))
	}
	if len(c.AdminIDs) == 0 {
		errs = append(errs, "at least one admin_id is required")
	}
	for i, id := range c.AdminIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Sprintf("admin_ids[%d] is empty", i))
		}
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be \"sqlite\" or \"mysql\", got %q", c.Database.Driver))
	}
	if c.Feed.PromoRate < 0 || c.Feed.PromoRate >= 1 {
		errs = append(errs, fmt.Sprintf("feed.promo_rate must be in [0, 1), got %v", c.Feed.PromoRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsAdmin reports whether the given chat identity is a configured admin.
func (c *Config) IsAdmin(chatIdentity string) bool {
	for _, id := range c.AdminIDs {
		if id == chatIdentity {
			return true
		}
	}
	return false
}
