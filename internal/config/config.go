package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World     WorldConfig     `toml:"world"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
}

type WorldConfig struct {
	Editing      bool     `toml:"editing"`       // work on a private copy; enables save and persistent ids
	TempDir      string   `toml:"temp_dir"`      // "" = os.TempDir()
	AllowUpgrade bool     `toml:"allow_upgrade"` // apply schema migrations on open
	MinVersion   string   `toml:"min_version"`   // oldest readable schema, "1.0.0"
	MaxVersion   string   `toml:"max_version"`   // newest readable schema
	Pragmas      []string `toml:"pragmas"`       // applied to every connection
}

type ScriptingConfig struct {
	Enabled    bool   `toml:"enabled"`
	ScriptsDir string `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file overrides a value.
func Defaults() *Config {
	return &Config{
		World: WorldConfig{
			Editing:      true,
			AllowUpgrade: true,
			MinVersion:   "1.0.0",
			MaxVersion:   "1.0.2",
			Pragmas: []string{
				"synchronous = OFF",
				"temp_store = MEMORY",
				"cache_size = -8000",
			},
		},
		Scripting: ScriptingConfig{
			Enabled:    false,
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
