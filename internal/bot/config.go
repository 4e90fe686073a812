package bot

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the framework-level settings shared by every module. Only
// the gateway credentials live here; anything module-specific belongs to the
// module that consumes it (see ConfigurableModule).
type Config struct {
	// DiscordToken authenticates the gateway session.
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`
}

// LoadConfig reads the framework configuration from the environment and
// rejects a missing token before any network connection is attempted.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse bot config: %w", err)
	}
	return &cfg, nil
}
