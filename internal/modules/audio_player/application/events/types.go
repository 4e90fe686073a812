package events

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// StateChangedEvent is published after every successful mutating operation
// on a playback session.
type StateChangedEvent struct {
	GuildID  snowflake.ID
	Snapshot domain.SessionSnapshot
}

// SessionClosedEvent is published when a session is torn down, signaling
// that the guild's player view should be removed.
type SessionClosedEvent struct {
	GuildID snowflake.ID
}
