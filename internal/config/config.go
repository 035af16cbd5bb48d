// Package config loads the calnorm YAML configuration and applies
// environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"calnorm/internal/datetime"
	"calnorm/internal/models"
)

const (
	defaultSchedule    = "*/15 * * * *"
	defaultStateFile   = "sync-state.json"
	defaultEndpoint    = "https://caldav.icloud.com/"
	defaultHorizonDays = 7
)

// AccountConfig names one authorized provider account to read from.
type AccountConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	// CalendarIDs limits mirroring to these calendars. Empty means all.
	CalendarIDs []string `yaml:"calendar_ids,omitempty"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type MicrosoftConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Tenant       string `yaml:"tenant"`
	RedirectURL  string `yaml:"redirect_url,omitempty"`
	// BaseURL overrides the Graph endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
}

// CalDAVConfig is the publishing target.
type CalDAVConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Calendar     string `yaml:"calendar"`
	CalendarPath string `yaml:"calendar_path,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Timezone is the IANA or Windows zone published instants are anchored to.
	Timezone string `yaml:"timezone"`

	// TokenDir holds the token-<provider>-<account>.json files.
	TokenDir  string `yaml:"token_dir"`
	StateFile string `yaml:"state_file"`

	// HorizonDays is the look-ahead of every pull or publish.
	HorizonDays int `yaml:"horizon_days"`

	// Schedule is a standard five-field cron expression for --schedule runs.
	Schedule string `yaml:"schedule"`

	// Prune removes published events that vanished from the sources.
	Prune bool `yaml:"prune"`

	Accounts  []AccountConfig `yaml:"accounts"`
	Google    GoogleConfig    `yaml:"google"`
	Microsoft MicrosoftConfig `yaml:"microsoft"`
	CalDAV    CalDAVConfig    `yaml:"caldav"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		Timezone:    "UTC",
		TokenDir:    ".",
		StateFile:   defaultStateFile,
		HorizonDays: defaultHorizonDays,
		Schedule:    defaultSchedule,
		Accounts:    []AccountConfig{},
		Microsoft:   MicrosoftConfig{Tenant: "common"},
		CalDAV:      CalDAVConfig{Endpoint: defaultEndpoint},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.TokenDir == "" {
		c.TokenDir = "."
	}
	if c.StateFile == "" {
		c.StateFile = defaultStateFile
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.Schedule == "" {
		c.Schedule = defaultSchedule
	}
	if c.Accounts == nil {
		c.Accounts = []AccountConfig{}
	}
	for i := range c.Accounts {
		c.Accounts[i].Provider = strings.ToLower(strings.TrimSpace(c.Accounts[i].Provider))
	}
	if c.Microsoft.Tenant == "" {
		c.Microsoft.Tenant = "common"
	}
	if c.CalDAV.Endpoint == "" {
		c.CalDAV.Endpoint = defaultEndpoint
	}
}

// Validate reports settings that cannot be used as given.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid schedule %q: %w", c.Schedule, err))
	}
	seen := map[string]bool{}
	for i, a := range c.Accounts {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("account %d has no name", i))
		}
		if !models.Provider(a.Provider).IsValid() {
			errs = append(errs, fmt.Errorf("account %q has unknown provider %q", a.Name, a.Provider))
		}
		key := a.Provider + "/" + a.Name
		if seen[key] {
			errs = append(errs, fmt.Errorf("account %q is listed twice", key))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := datetime.LoadZone(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// AccountsFor returns the accounts of provider p.
func (c *Config) AccountsFor(p models.Provider) []AccountConfig {
	var out []AccountConfig
	for _, a := range c.Accounts {
		if models.Provider(a.Provider) == p {
			out = append(out, a)
		}
	}
	return out
}

// ApplyEnv overrides settings from the environment. Callers load any .env
// file first.
func (c *Config) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Timezone, "PRIMARY_TIMEZONE")
	setString(&c.TokenDir, "TOKEN_DIR")
	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Microsoft.ClientID, "MICROSOFT_CLIENT_ID")
	setString(&c.Microsoft.ClientSecret, "MICROSOFT_CLIENT_SECRET")
	setString(&c.Microsoft.Tenant, "MICROSOFT_TENANT")
	setString(&c.CalDAV.Endpoint, "CALDAV_ENDPOINT")
	setString(&c.CalDAV.Username, "CALDAV_USERNAME")
	setString(&c.CalDAV.Password, "CALDAV_PASSWORD")
	setString(&c.CalDAV.Calendar, "CALDAV_CALENDAR")
	if v := os.Getenv("HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HorizonDays = n
		}
	}
	c.Normalize()
}

// Load loads configuration from the given YAML path. A missing file is
// created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".calnorm-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
