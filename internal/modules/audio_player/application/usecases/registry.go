package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/events"
	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
)

// SessionRegistry maps guild IDs to playback sessions. At most one session
// exists per guild at any time; entries are created lazily on first play and
// removed on teardown.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*PlaybackSession

	connections ports.ConnectionFactory
	bus         *events.Bus
}

// NewSessionRegistry creates a SessionRegistry.
func NewSessionRegistry(connections ports.ConnectionFactory, bus *events.Bus) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[snowflake.ID]*PlaybackSession),
		connections: connections,
		bus:         bus,
	}
}

// Get returns the guild's session, or nil if none exists.
func (r *SessionRegistry) Get(guildID snowflake.ID) *PlaybackSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[guildID]
}

// GetOrCreate returns the guild's session, connecting to the voice channel
// and creating one if needed. Creation is serialized by the registry lock so
// concurrent callers observe exactly one session per guild; connects are
// rare enough that holding the lock across them is acceptable.
func (r *SessionRegistry) GetOrCreate(
	ctx context.Context,
	guildID, voiceChannelID snowflake.ID,
) (*PlaybackSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[guildID]; ok {
		return session, nil
	}

	conn, err := r.connections.Connect(ctx, guildID, voiceChannelID)
	if err != nil {
		return nil, err
	}

	session := NewPlaybackSession(guildID, conn, r.bus)
	r.sessions[guildID] = session

	slog.Info("created playback session", "guild", guildID, "channel", voiceChannelID)
	return session, nil
}

// Remove tears down and forgets the guild's session. Removing a guild with
// no session is a safe no-op, so a racing idle-timeout and explicit stop
// cannot double-fault.
func (r *SessionRegistry) Remove(ctx context.Context, guildID snowflake.ID) {
	r.mu.Lock()
	session, ok := r.sessions[guildID]
	if ok {
		delete(r.sessions, guildID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	if err := session.Close(ctx); err != nil {
		slog.Warn("failed to close playback session", "guild", guildID, "error", err)
	}
	slog.Info("removed playback session", "guild", guildID)
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown closes every session. Used at process exit.
func (r *SessionRegistry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*PlaybackSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.sessions = make(map[snowflake.ID]*PlaybackSession)
	r.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(ctx); err != nil {
			slog.Warn("failed to close playback session during shutdown",
				"guild", session.GuildID(), "error", err)
		}
	}
}
