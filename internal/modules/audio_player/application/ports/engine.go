package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// EngineConnection is a per-guild handle to the external streaming engine.
// It is exclusively owned by the guild's playback session; no other
// component may invoke playback-affecting operations against it.
type EngineConnection interface {
	// Play starts playback of the track at the given offset, replacing
	// whatever is currently playing.
	Play(ctx context.Context, track *domain.Track, at time.Duration) error

	// Stop stops the current playback without disconnecting.
	Stop(ctx context.Context) error

	// Pause pauses the current playback.
	Pause(ctx context.Context) error

	// Resume resumes paused playback.
	Resume(ctx context.Context) error

	// SetVolume sets the playback volume (0-100).
	SetVolume(ctx context.Context, volume int) error

	// SetFilter applies or removes the session's audio filter chain.
	SetFilter(ctx context.Context, enabled bool) error

	// Position returns the elapsed position of the current track.
	Position() time.Duration

	// Disconnect leaves the voice channel and destroys the engine player.
	Disconnect(ctx context.Context) error
}

// ConnectionFactory establishes engine connections for guilds.
type ConnectionFactory interface {
	Connect(ctx context.Context, guildID, voiceChannelID snowflake.ID) (EngineConnection, error)
}
