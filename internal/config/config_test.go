package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5555,
			WSPort:       0,
			ReadTimeout:  0,
			WriteTimeout: 30 * time.Second,
		},
		Game: GameConfig{
			MinPlayers:   2,
			MaxPlayers:   8,
			DrawTime:     60 * time.Second,
			TickInterval: time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:5555", cfg.Server.Addr())
}

func TestServerWSAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.WSPort = 5556
	assert.Equal(t, "0.0.0.0:5556", cfg.Server.WSAddr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 6001
  ws_port: 6002
  write_timeout: 10s
game:
  min_players: 3
  max_players: 6
  draw_time: 45s
  tick_interval: 500ms
words:
  dir: content/words
logging:
  level: debug
  format: console
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 6001, cfg.Server.Port)
	assert.Equal(t, 6002, cfg.Server.WSPort)
	assert.Equal(t, 3, cfg.Game.MinPlayers)
	assert.Equal(t, 45*time.Second, cfg.Game.DrawTime)
	assert.Equal(t, "content/words", cfg.Words.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path.yaml")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5555, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Server.WSPort)
	assert.Equal(t, 2, cfg.Game.MinPlayers)
	assert.Equal(t, 8, cfg.Game.MaxPlayers)
	assert.Equal(t, 60*time.Second, cfg.Game.DrawTime)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SKETCH_SERVER_HOST", "10.0.0.1")
	t.Setenv("SKETCH_SERVER_PORT", "7777")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestValidateServerPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.Port = 65536
	assert.Error(t, cfg.Validate())
}

func TestValidateWSPortCollision(t *testing.T) {
	cfg := validConfig()
	cfg.Server.WSPort = cfg.Server.Port
	assert.Error(t, cfg.Validate())
}

func TestValidateMinPlayers(t *testing.T) {
	cfg := validConfig()
	cfg.Game.MinPlayers = 1
	assert.Error(t, cfg.Validate())
}

func TestValidateMaxBelowMin(t *testing.T) {
	cfg := validConfig()
	cfg.Game.MinPlayers = 4
	cfg.Game.MaxPlayers = 3
	assert.Error(t, cfg.Validate())
}

func TestValidateDrawTime(t *testing.T) {
	cfg := validConfig()
	cfg.Game.DrawTime = 500 * time.Millisecond
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}

func TestPropertyPlayerBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minPlayers := rapid.IntRange(2, 50).Draw(t, "min_players")
		maxPlayers := rapid.IntRange(minPlayers, minPlayers+50).Draw(t, "max_players")
		cfg := validConfig()
		cfg.Game.MinPlayers = minPlayers
		cfg.Game.MaxPlayers = maxPlayers
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid bounds min=%d max=%d rejected: %v", minPlayers, maxPlayers, err)
		}
	})
}
