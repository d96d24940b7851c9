// Package config provides Viper-based configuration loading for the sketch server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds stream listener settings.
type ServerConfig struct {
	// Host is the bind address for the TCP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the line-protocol listener.
	Port int `mapstructure:"port"`
	// WSPort is the HTTP port for the WebSocket frontend; 0 disables it.
	WSPort int `mapstructure:"ws_port"`
	// ReadTimeout is the per-read timeout for client connections; 0 disables it.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address for the TCP listener.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WSAddr returns the "host:port" listen address for the WebSocket frontend.
func (s ServerConfig) WSAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.WSPort)
}

// GameConfig holds room and round rules.
type GameConfig struct {
	// MinPlayers is the member count required to start a game.
	MinPlayers int `mapstructure:"min_players"`
	// MaxPlayers is the room capacity.
	MaxPlayers int `mapstructure:"max_players"`
	// DrawTime is the duration of one drawing round.
	DrawTime time.Duration `mapstructure:"draw_time"`
	// TickInterval is how often round timeouts are checked.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// WordsConfig holds word-pack loading settings.
type WordsConfig struct {
	// Dir is the directory of YAML word packs; empty uses the built-in fallback set.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Words   WordsConfig   `mapstructure:"words"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.WSPort < 0 || s.WSPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.ws_port must be 0-65535, got %d", s.WSPort))
	}
	if s.WSPort != 0 && s.WSPort == s.Port {
		errs = append(errs, "server.ws_port must differ from server.port")
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MinPlayers < 2 {
		errs = append(errs, fmt.Sprintf("game.min_players must be >= 2, got %d", g.MinPlayers))
	}
	if g.MaxPlayers < g.MinPlayers {
		errs = append(errs, fmt.Sprintf("game.max_players must be >= game.min_players, got %d", g.MaxPlayers))
	}
	if g.DrawTime < time.Second {
		errs = append(errs, fmt.Sprintf("game.draw_time must be >= 1s, got %s", g.DrawTime))
	}
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("game.tick_interval must be > 0, got %s", g.TickInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. A missing config file is not an error; the
// defaults plus SKETCH_* environment overrides are used instead, so the server can
// run from environment variables alone.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SKETCH_ prefix
	v.SetEnvPrefix("SKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5555)
	v.SetDefault("server.ws_port", 0)
	v.SetDefault("server.read_timeout", "0s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.max_players", 8)
	v.SetDefault("game.draw_time", "60s")
	v.SetDefault("game.tick_interval", "1s")

	v.SetDefault("words.dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
