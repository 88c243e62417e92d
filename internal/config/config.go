package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/odjakh/giveaway-bot/core/config"
	coredatabase "github.com/odjakh/giveaway-bot/core/database"
)

// GiveawayConfig describes the campaign: the daily registration window,
// the discount terms and the certificate assets.
type GiveawayConfig struct {
	// Timezone is the IANA zone the window clock times are interpreted in.
	Timezone string `yaml:"timezone" envconfig:"GIVEAWAY_TIMEZONE"`
	// WindowStart and WindowEnd are "HH:MM" clock times. Registration is
	// accepted between them; the draw becomes eligible at WindowEnd.
	WindowStart string `yaml:"window_start" envconfig:"GIVEAWAY_WINDOW_START"`
	WindowEnd   string `yaml:"window_end" envconfig:"GIVEAWAY_WINDOW_END"`

	PromoCode       string `yaml:"promo_code" envconfig:"GIVEAWAY_PROMO_CODE"`
	DiscountPercent int    `yaml:"discount_percent" envconfig:"GIVEAWAY_DISCOUNT_PERCENT"`
	DiscountDays    int    `yaml:"discount_days" envconfig:"GIVEAWAY_DISCOUNT_DAYS"`

	// CertificateTemplate is the path to the background PNG the certificate
	// text is composited onto.
	CertificateTemplate string `yaml:"certificate_template" envconfig:"GIVEAWAY_CERT_TEMPLATE"`
	// FontPaths is an ordered list of TTF files tried for certificate text.
	FontPaths []string `yaml:"font_paths" envconfig:"GIVEAWAY_FONT_PATHS"`
}

// Config aggregates the reusable core configuration with the giveaway
// campaign settings and database connection.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Giveaway GiveawayConfig      `yaml:"giveaway"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeGiveaway(&cfg.Giveaway); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeGiveaway(g *GiveawayConfig) error {
	if strings.TrimSpace(g.Timezone) == "" {
		g.Timezone = "Europe/Moscow"
	}
	if _, err := time.LoadLocation(g.Timezone); err != nil {
		return fmt.Errorf("invalid giveaway.timezone %q: %w", g.Timezone, err)
	}
	if g.WindowStart == "" {
		g.WindowStart = "15:00"
	}
	if g.WindowEnd == "" {
		g.WindowEnd = "19:30"
	}
	for _, v := range []string{g.WindowStart, g.WindowEnd} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("invalid giveaway window time %q: %w", v, err)
		}
	}
	if g.PromoCode == "" {
		g.PromoCode = "ODJAX15"
	}
	if g.DiscountPercent <= 0 {
		g.DiscountPercent = 15
	}
	if g.DiscountDays <= 0 {
		g.DiscountDays = 90
	}
	if g.CertificateTemplate == "" {
		g.CertificateTemplate = "assets/certificate.png"
	}
	return nil
}

// AdminSet converts the configured admin id list into a membership set.
func (c *Config) AdminSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(c.Core.Telegram.AdminIDs))
	for _, id := range c.Core.Telegram.AdminIDs {
		if id != 0 {
			set[id] = struct{}{}
		}
	}
	return set
}

// Location resolves the configured campaign timezone.
// Normalize has already validated it, so failures are impossible here.
func (g GiveawayConfig) Location() *time.Location {
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
