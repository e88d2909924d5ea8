package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	XdgConfigHome    = "XDG_CONFIG_HOME"
	ConfigFolderName = "hoarder"
	ConfigFileName   = "config.yaml"

	DefaultServerAddr = "http://localhost:3000"
)

// ClientConfig holds what the CLI needs to reach the bookmark service.
type ClientConfig struct {
	APIKey     string        `yaml:"apiKey"`
	ServerAddr string        `yaml:"serverAddr"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DefaultClientConfigPath is $XDG_CONFIG_HOME/hoarder/config.yaml, falling
// back to ~/.config.
func DefaultClientConfigPath() (string, error) {
	base := os.Getenv(XdgConfigHome)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("couldn't find home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, ConfigFolderName, ConfigFileName), nil
}

// LoadClient reads the YAML file at path, then applies HOARDER_API_KEY and
// HOARDER_SERVER_ADDR on top. A missing file is not an error when optional
// is true, which is the case for the default location.
func LoadClient(path string, optional bool) (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerAddr: DefaultServerAddr,
		Timeout:    30 * time.Second,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && optional:
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.APIKey = getenv("HOARDER_API_KEY", cfg.APIKey)
	cfg.ServerAddr = getenv("HOARDER_SERVER_ADDR", cfg.ServerAddr)
	cfg.Timeout = mustDuration("HOARDER_TIMEOUT", cfg.Timeout)
	cfg.ServerAddr = strings.TrimRight(strings.TrimSpace(cfg.ServerAddr), "/")

	return cfg, nil
}

// Validate checks the fields every API call depends on.
func (c *ClientConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("no API key configured: pass --api-key, set HOARDER_API_KEY or add apiKey to the config file")
	}
	if c.ServerAddr == "" {
		return errors.New("no server address configured")
	}
	return nil
}
