package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "krachkiste"
	configFile = "config.yaml"
	storeFile  = "store.yaml"
)

// Defaults for the networking component. The access point values mirror the
// firmware's build-time settings and cannot be changed through the portal.
const (
	DefaultAccessPointSSID       = "krachkiste_ap"
	DefaultAccessPointPSK        = "foobar"
	DefaultAccessPointChannel    = 5
	DefaultAccessPointMaxClients = 3

	// DefaultAccessPointLifetime is how long an idle access point stays up.
	DefaultAccessPointLifetime = 60 * time.Second

	// DefaultStationMaxAttempts is the number of failed connection attempts
	// before falling back to access point mode.
	DefaultStationMaxAttempts = 3

	// DefaultMonitorFrequency is the controller's wake-up interval for
	// publishing status events.
	DefaultMonitorFrequency = 5 * time.Second

	DefaultListenAddr = ":8080"
)

// AccessPoint configures the self-hosted fallback network.
type AccessPoint struct {
	SSID            string `yaml:"ssid"`
	PSK             string `yaml:"psk"`
	Channel         int    `yaml:"channel"`
	MaxClients      int    `yaml:"max_clients"`
	LifetimeSeconds int    `yaml:"lifetime_seconds"`
}

// Station configures station mode behavior.
type Station struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// HTTP configures the configuration portal's server.
type HTTP struct {
	Listen string `yaml:"listen"`
}

// Config is the daemon configuration, loaded from a YAML file.
type Config struct {
	Version int `yaml:"version"`

	StorePath string `yaml:"store_path"`

	AccessPoint AccessPoint `yaml:"access_point"`
	Station     Station     `yaml:"station"`
	HTTP        HTTP        `yaml:"http"`

	MonitorFrequencySeconds int `yaml:"monitor_frequency_seconds"`
}

// GetConfigDir returns the OS-appropriate configuration directory for the
// daemon:
//   - Linux: $XDG_CONFIG_HOME/krachkiste or $HOME/.config/krachkiste
//   - macOS: $HOME/.config/krachkiste
//   - Windows: %LOCALAPPDATA%\krachkiste
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Default returns a configuration with all defaults applied. The store path
// is left empty when no config directory can be determined; Load fills it
// in where possible.
func Default() *Config {
	cfg := &Config{
		Version: 1,
		AccessPoint: AccessPoint{
			SSID:            DefaultAccessPointSSID,
			PSK:             DefaultAccessPointPSK,
			Channel:         DefaultAccessPointChannel,
			MaxClients:      DefaultAccessPointMaxClients,
			LifetimeSeconds: int(DefaultAccessPointLifetime / time.Second),
		},
		Station: Station{
			MaxAttempts: DefaultStationMaxAttempts,
		},
		HTTP: HTTP{
			Listen: DefaultListenAddr,
		},
		MonitorFrequencySeconds: int(DefaultMonitorFrequency / time.Second),
	}

	if configDir, err := GetConfigDir(); err == nil {
		cfg.StorePath = filepath.Join(configDir, storeFile)
	}

	return cfg
}

// Load reads the configuration at path. A missing file yields the default
// configuration; a present file has defaults applied to any omitted field.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.StorePath == "" {
		cfg.StorePath = def.StorePath
	}
	if cfg.AccessPoint.SSID == "" {
		cfg.AccessPoint.SSID = def.AccessPoint.SSID
	}
	if cfg.AccessPoint.Channel == 0 {
		cfg.AccessPoint.Channel = def.AccessPoint.Channel
	}
	if cfg.AccessPoint.MaxClients == 0 {
		cfg.AccessPoint.MaxClients = def.AccessPoint.MaxClients
	}
	if cfg.AccessPoint.LifetimeSeconds == 0 {
		cfg.AccessPoint.LifetimeSeconds = def.AccessPoint.LifetimeSeconds
	}
	if cfg.Station.MaxAttempts == 0 {
		cfg.Station.MaxAttempts = def.Station.MaxAttempts
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = def.HTTP.Listen
	}
	if cfg.MonitorFrequencySeconds == 0 {
		cfg.MonitorFrequencySeconds = def.MonitorFrequencySeconds
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.AccessPoint.Channel < 1 || c.AccessPoint.Channel > 13 {
		return fmt.Errorf("invalid access point channel: %d (expected 1-13)", c.AccessPoint.Channel)
	}
	if c.AccessPoint.MaxClients < 1 {
		return fmt.Errorf("invalid access point max_clients: %d", c.AccessPoint.MaxClients)
	}
	if c.AccessPoint.LifetimeSeconds < 1 {
		return fmt.Errorf("invalid access point lifetime_seconds: %d", c.AccessPoint.LifetimeSeconds)
	}
	if c.Station.MaxAttempts < 1 {
		return fmt.Errorf("invalid station max_attempts: %d", c.Station.MaxAttempts)
	}
	if c.MonitorFrequencySeconds < 1 {
		return fmt.Errorf("invalid monitor_frequency_seconds: %d", c.MonitorFrequencySeconds)
	}
	return nil
}

// AccessPointLifetime returns the idle shutdown timeout as a duration.
func (c *Config) AccessPointLifetime() time.Duration {
	return time.Duration(c.AccessPoint.LifetimeSeconds) * time.Second
}

// MonitorFrequency returns the controller wake-up interval as a duration.
func (c *Config) MonitorFrequency() time.Duration {
	return time.Duration(c.MonitorFrequencySeconds) * time.Second
}

// Save writes the configuration atomically.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# krachkiste daemon configuration\n" +
		"#\n" +
		"# Station credentials (SSID / PSK) are NOT stored in this file. They\n" +
		"# live in the persistent store and are managed through the\n" +
		"# configuration portal or 'krachkiste-cfg creds'.\n\n")
	raw = append(header, raw...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
