// Package config provides configuration loading from YAML files, the OS
// keychain, and environment variables. Environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/gesture"
)

const (
	// KeychainService is the keychain service name for darkpad secrets.
	KeychainService = "darkpad"

	// KeyControlToken is the keychain account holding the control server
	// bearer token.
	KeyControlToken = "control-token"

	// DefaultControlAddr is where the control server listens by default.
	DefaultControlAddr = "127.0.0.1:12011"
)

// Config holds the full application configuration, assembled from YAML +
// keychain + env.
type Config struct {
	Tap     TapConfig     `yaml:"tap"`
	Swipe   SwipeConfig   `yaml:"swipe"`
	Device  DeviceConfig  `yaml:"device"`
	Display DisplayConfig `yaml:"display"`
	Control ControlConfig `yaml:"control"`
	Media   MediaConfig   `yaml:"media"`
	Log     LogConfig     `yaml:"log"`
}

// TapConfig holds the tap-to-wake switch.
type TapConfig struct {
	// Threshold is the number of taps after the first one needed to wake;
	// 0 disables.
	Threshold int `yaml:"threshold"`
}

// SwipeConfig holds the swipe switches.
type SwipeConfig struct {
	Enabled        bool `yaml:"enabled"`
	AutoOffDelayMS int  `yaml:"auto_off_delay_ms"`
}

// DeviceConfig locates the touch panel and the action sink.
type DeviceConfig struct {
	Path         string `yaml:"path,omitempty"`
	NameKeyword  string `yaml:"name_keyword"`
	Grab         bool   `yaml:"grab"`
	UinputPath   string `yaml:"uinput_path"`
	HapticPath   string `yaml:"haptic_path,omitempty"`
	TouchOffPath string `yaml:"touch_off_path,omitempty"`
}

// DisplayConfig selects the display power source.
type DisplayConfig struct {
	BlankPath string `yaml:"blank_path,omitempty"`
	PollMS    int    `yaml:"poll_ms,omitempty"`
}

// ControlConfig holds control server configuration.
type ControlConfig struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"-"` // secret, not in YAML
}

// MediaConfig holds the media watcher configuration.
type MediaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command,omitempty"`
	PollMS  int    `yaml:"poll_ms,omitempty"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration: tap-to-wake off, swipe
// control on.
func Default() *Config {
	hw := device.DefaultHardwareConfig()
	return &Config{
		Tap:   TapConfig{Threshold: 0},
		Swipe: SwipeConfig{Enabled: true, AutoOffDelayMS: 4000},
		Device: DeviceConfig{
			NameKeyword:  hw.NameKeyword,
			Grab:         hw.Grab,
			UinputPath:   hw.UinputPath,
			HapticPath:   hw.HapticPath,
			TouchOffPath: hw.TouchOffPath,
		},
		Control: ControlConfig{Addr: DefaultControlAddr},
		Media:   MediaConfig{Enabled: true},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "darkpad")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if p := os.Getenv("DARKPAD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load assembles configuration from the default YAML file + keychain +
// environment variables.
func Load() (*Config, error) {
	return LoadFile(DefaultConfigPath())
}

// LoadFile is Load with an explicit file. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	// 1. YAML config file
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// 2. Keychain secrets (ignore errors, the keychain may not be populated)
	if token, err := keyring.Get(KeychainService, KeyControlToken); err == nil {
		cfg.Control.Token = token
	}

	// 3. Environment variables override everything
	if v, ok := parseSwitch(os.Getenv("DARKPAD_TAP"), gesture.MaxTapThreshold); ok {
		cfg.Tap.Threshold = v
	}
	if v, ok := parseSwitch(os.Getenv("DARKPAD_SWIPE"), 1); ok {
		cfg.Swipe.Enabled = v == 1
	}
	if v := os.Getenv("DARKPAD_DEVICE"); v != "" {
		cfg.Device.Path = v
	}
	if v := os.Getenv("DARKPAD_CONTROL_ADDR"); v != "" {
		cfg.Control.Addr = v
	}
	if v := os.Getenv("DARKPAD_CONTROL_TOKEN"); v != "" {
		cfg.Control.Token = v
	}
	if v := os.Getenv("DARKPAD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

// parseSwitch reads a boot-time style switch: a single digit up to max.
// Anything else keeps the default.
func parseSwitch(s string, max int) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		return 0, false
	}
	return n, true
}

// Apply copies the persistent switches into the live gesture configuration.
func (c *Config) Apply(g *gesture.Config) error {
	if err := g.SetTapThreshold(c.Tap.Threshold); err != nil {
		return fmt.Errorf("tap.threshold %d: %w", c.Tap.Threshold, err)
	}
	g.SetSwipeEnabled(c.Swipe.Enabled)
	if ms := int64(c.Swipe.AutoOffDelayMS); ms != 0 {
		if ms < gesture.MinAutoOffDelay.Milliseconds() || ms > gesture.MaxAutoOffDelay.Milliseconds() {
			return fmt.Errorf("swipe.auto_off_delay_ms %d: %w", ms, gesture.ErrInvalidValue)
		}
		g.SetAutoOffDelay(time.Duration(ms) * time.Millisecond)
	}
	return nil
}

// Hardware returns the evdev/uinput adapter configuration.
func (c *Config) Hardware() device.HardwareConfig {
	return device.HardwareConfig{
		Path:         c.Device.Path,
		NameKeyword:  c.Device.NameKeyword,
		Grab:         c.Device.Grab,
		UinputPath:   c.Device.UinputPath,
		HapticPath:   c.Device.HapticPath,
		TouchOffPath: c.Device.TouchOffPath,
	}
}

// WriteConfigFile writes the non-secret portion of config to the YAML file.
func WriteConfigFile(cfg *Config) error {
	path := DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// SetKeychainSecret stores a secret in the OS keychain.
func SetKeychainSecret(account, value string) error {
	// Delete first to avoid "already exists" errors on update
	_ = keyring.Delete(KeychainService, account)
	return keyring.Set(KeychainService, account, value)
}

// GetKeychainSecret retrieves a secret from the OS keychain.
func GetKeychainSecret(account string) (string, error) {
	return keyring.Get(KeychainService, account)
}
