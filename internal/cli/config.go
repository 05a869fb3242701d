package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/chathistory"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
)

const defaultBaseURL = "http://localhost:8080"

// Config is the on-disk mojoctl configuration.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	SessionToken string `yaml:"session_token"`
	// Workdir is the sandbox prefix snapshot paths are recorded under.
	Workdir string `yaml:"workdir"`
}

// DefaultConfigPath is ~/.config/mojoctl/config.yaml, honoring XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "mojoctl", "config.yaml")
}

// LoadConfig reads path. A missing file is an empty config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// resolve layers environment over the file and flags over both.
func (c Config) resolve(baseURL, token string) Config {
	out := c
	if v := envutil.String("MOJO_BASE_URL", ""); v != "" {
		out.BaseURL = v
	}
	if v := envutil.String("MOJO_SESSION_TOKEN", ""); v != "" {
		out.SessionToken = v
	}
	if strings.TrimSpace(baseURL) != "" {
		out.BaseURL = baseURL
	}
	if strings.TrimSpace(token) != "" {
		out.SessionToken = token
	}
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.Workdir == "" {
		out.Workdir = chathistory.DefaultWorkdir
	}
	return out
}
