package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type ConsoleConfig struct {
	// URL is the console page, e.g. http://localhost:8888/vjconsole.
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
	Locale    string `yaml:"locale"`
	// SessionID pins the session id instead of generating one.
	SessionID string `yaml:"session_id"`
}

type SessionConfig struct {
	RefreshInterval     time.Duration `yaml:"refresh_interval"`
	InactivityTimeout   time.Duration `yaml:"inactivity_timeout"`
	ReconnectDelay      time.Duration `yaml:"reconnect_delay"`
	ResourceReportAfter time.Duration `yaml:"resource_report_after"`
}

type StoreConfig struct {
	// Path of the bbolt database. Empty keeps state in memory.
	Path string `yaml:"path"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

func defaultConfig() *Config {
	return &Config{
		Console: ConsoleConfig{
			URL:       "http://127.0.0.1:8888/vjconsole",
			Namespace: "vjconsole",
			Locale:    "en",
		},
		Session: SessionConfig{
			RefreshInterval:     30 * time.Second,
			InactivityTimeout:   0,
			ReconnectDelay:      time.Second,
			ResourceReportAfter: 5 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// Validate rejects settings the console cannot work with.
func (c *Config) Validate() error {
	if c.Console.URL == "" {
		return errors.New("console.url is required")
	}
	if c.Session.RefreshInterval < 0 || c.Session.InactivityTimeout < 0 {
		return errors.New("session intervals must not be negative")
	}
	if c.Session.InactivityTimeout > 0 && c.Session.RefreshInterval == 0 {
		return errors.New("session.inactivity_timeout needs session.refresh_interval")
	}
	return nil
}

// Diff lists the settings that differ between two configurations, for
// logging on reload.
func Diff(old, new *Config) []string {
	var changes []string
	str := func(key, a, b string) {
		if a != b {
			changes = append(changes, fmt.Sprintf("%s: %q → %q", key, a, b))
		}
	}
	dur := func(key string, a, b time.Duration) {
		if a != b {
			changes = append(changes, fmt.Sprintf("%s: %v → %v", key, a, b))
		}
	}

	str("console.url", old.Console.URL, new.Console.URL)
	str("console.namespace", old.Console.Namespace, new.Console.Namespace)
	str("console.locale", old.Console.Locale, new.Console.Locale)
	str("console.session_id", old.Console.SessionID, new.Console.SessionID)
	dur("session.refresh_interval", old.Session.RefreshInterval, new.Session.RefreshInterval)
	dur("session.inactivity_timeout", old.Session.InactivityTimeout, new.Session.InactivityTimeout)
	dur("session.reconnect_delay", old.Session.ReconnectDelay, new.Session.ReconnectDelay)
	dur("session.resource_report_after", old.Session.ResourceReportAfter, new.Session.ResourceReportAfter)
	str("store.path", old.Store.Path, new.Store.Path)
	dur("http.timeout", old.HTTP.Timeout, new.HTTP.Timeout)
	return changes
}
