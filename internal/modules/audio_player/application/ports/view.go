package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// View is the notification/render bridge: a pure observer of session
// snapshots. It is never granted mutation access to the session.
type View interface {
	// Render draws (or redraws) the player view for the snapshot's guild.
	Render(ctx context.Context, snapshot domain.SessionSnapshot) error

	// Remove deletes the player view for the guild.
	Remove(ctx context.Context, guildID snowflake.ID) error
}
