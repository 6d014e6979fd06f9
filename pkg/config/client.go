package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the till CLI.
type ClientConfig struct {
	APIURL    string        `mapstructure:"api_url"`
	CachePath string        `mapstructure:"cache_path"`
	Debounce  time.Duration `mapstructure:"debounce"`
	Timezone  string        `mapstructure:"timezone"`
	Actor     string        `mapstructure:"actor"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Log       LogConfig     `mapstructure:"log"`
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sweetbox", "roster.yaml")
}

// LoadClient reads the CLI configuration (TILL_ prefixed environment, optional file).
func LoadClient(path string) (*ClientConfig, error) {
	_ = godotenv.Load()

	v := newViper("TILL")
	v.SetDefault("api_url", "http://localhost:5500")
	v.SetDefault("cache_path", defaultCachePath())
	v.SetDefault("debounce", "500ms")
	v.SetDefault("timezone", "Local")
	v.SetDefault("actor", "")
	v.SetDefault("token", "")
	v.SetDefault("timeout", "10s")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	if err := readFile(v, path); err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &cfg, nil
}

// Location resolves the business timezone.
func (c *ClientConfig) Location() (*time.Location, error) {
	return (&Config{Timezone: c.Timezone}).Location()
}
