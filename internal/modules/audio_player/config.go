package audio_player

import "time"

// Config holds the audio player module configuration.
type Config struct {
	LavalinkAddress  string        `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string        `env:"LAVALINK_PASSWORD,notEmpty"`
	IdleGrace        time.Duration `env:"IDLE_DISCONNECT_GRACE" envDefault:"15s"`
}
