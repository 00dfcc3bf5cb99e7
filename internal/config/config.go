// Package config loads and validates the broker's TOML configuration file.
//
// Grounded on original_source/src/config.rs for load/validate/
// effective_socket_path semantics, and on nevindra-oasis's go.mod for the
// BurntSushi/toml decoder (the pack carries no viper; a plain Decode plus
// manual validation mirrors what the original does with serde + toml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultTimeoutSeconds = 300

// Config is the broker's on-disk configuration.
type Config struct {
	TelegramBotToken string  `toml:"telegram_bot_token"`
	AllowedChatIDs   []int64 `toml:"allowed_chat_ids"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	SocketPath       string  `toml:"socket_path"`
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid TOML in %s: %w", path, err)
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("config: telegram_bot_token must not be empty")
	}
	if len(c.AllowedChatIDs) == 0 {
		return fmt.Errorf("config: allowed_chat_ids must have at least one entry")
	}
	if c.TimeoutSeconds <= 0 || c.TimeoutSeconds > 3600 {
		return fmt.Errorf("config: timeout_seconds must be between 1 and 3600")
	}
	if c.SocketPath != "" {
		parent := filepath.Dir(c.SocketPath)
		if _, err := os.Stat(parent); err != nil {
			return fmt.Errorf("config: socket_path parent directory does not exist: %s", parent)
		}
	}
	return nil
}

// EffectiveSocketPath resolves the socket path per spec.md §4.2: an
// explicit socket_path wins, then $XDG_RUNTIME_DIR, then a per-uid path
// under /tmp.
func (c Config) EffectiveSocketPath() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	return DefaultSocketPath()
}

// DefaultSocketPath computes the rendezvous socket path with no explicit
// override configured.
func DefaultSocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "vibe-reachout.sock")
	}
	return fmt.Sprintf("/tmp/vibe-reachout-%d.sock", os.Getuid())
}

// FilePath returns the default config file location,
// os.UserConfigDir()/vibe-reachout/config.toml. No third-party "standard
// directories" library appears anywhere in the pack, so this one call
// stays on the standard library (DESIGN.md records the justification).
func FilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, "vibe-reachout", "config.toml"), nil
}
