package appcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel             string `yaml:"log_level"` // "debug"|"info"|"warn"|"error"
	HideSecretsInConsole bool   `yaml:"hide_secrets_in_console"`
	LogsBase             string `yaml:"logs_base"` // empty: console only
	LogMaxSizeMB         int    `yaml:"log_max_size_mb"`
	LogMaxBackups        int    `yaml:"log_max_backups"`
}

func Default() *Config {
	return &Config{LogLevel: "info", LogsBase: "logs", LogMaxSizeMB: 100, LogMaxBackups: 3}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open app config %q: %w", path, err)
	}
	defer f.Close()

	c := Default()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return nil, fmt.Errorf("decode app yaml %q: %w", path, err)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = 100
	}
	return c, nil
}
