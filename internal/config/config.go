// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkyr/fig"
)

const configEnv = "GEOADDR"

// DesktopID identifies this application towards the location portal and
// the GeoClue2 service.
const DesktopID = "geoaddr"

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Position struct {
		// Allowed values: geoclue, gpsd, wifi
		Backend  string `fig:"backend"`
		GPSDHost string `fig:"gpsd_host" default:"localhost"`
		GPSDPort string `fig:"gpsd_port" default:"2947"`
	} `fig:"position"`

	GeoCoder struct {
		// Allowed values: nominatim, opencage
		Provider string `fig:"provider" default:"nominatim"`
		APIKey   string `fig:"apikey"`
	} `fig:"geocoder"`

	Permission struct {
		DisableNotifications bool `fig:"disable_notifications"`
	} `fig:"permission"`

	Intervals struct {
		Watch string `fig:"watch" default:"5m"`
	} `fig:"intervals"`
}

// NewFromFile loads the configuration from the given directory and file name.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// New loads the configuration from defaults and the environment only.
func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	switch c.Position.Backend {
	case "", "geoclue", "gpsd", "wifi":
	default:
		return fmt.Errorf("invalid position backend: %s", c.Position.Backend)
	}
	switch c.GeoCoder.Provider {
	case "nominatim", "opencage":
	default:
		return fmt.Errorf("invalid geocoder provider: %s", c.GeoCoder.Provider)
	}
	if c.Locale == "" {
		c.Locale = getLocale()
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
