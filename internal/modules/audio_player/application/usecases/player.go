package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// PlayInput contains the input for the Play operation.
type PlayInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	Query                 string
	ForcePlay             bool
}

// PlayOutput contains the result of the Play operation.
type PlayOutput struct {
	Tracks []*domain.Track
}

// JumpInput contains the input for the JumpTo operation.
type JumpInput struct {
	GuildID     snowflake.ID
	Index       int
	FromHistory bool
}

// PlayerService is the command surface exposed to the hosting bot framework.
// Each operation maps onto a registry lookup plus one session method.
type PlayerService struct {
	registry   *SessionRegistry
	resolver   ports.TrackResolver
	voiceState ports.VoiceStateProvider
}

// NewPlayerService creates a PlayerService.
func NewPlayerService(
	registry *SessionRegistry,
	resolver ports.TrackResolver,
	voiceState ports.VoiceStateProvider,
) *PlayerService {
	return &PlayerService{
		registry:   registry,
		resolver:   resolver,
		voiceState: voiceState,
	}
}

// Play resolves the query and enqueues the resulting tracks, creating the
// guild's session (and connecting to the caller's voice channel) on first
// use.
func (p *PlayerService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	voiceChannelID, err := p.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if voiceChannelID == 0 {
		return nil, domain.ErrUserNotInVoice
	}

	result, err := p.resolver.Resolve(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	session, err := p.registry.GetOrCreate(ctx, input.GuildID, voiceChannelID)
	if err != nil {
		return nil, err
	}
	session.SetNotificationChannel(input.NotificationChannelID)

	err = session.Enqueue(ctx, result.Tracks, EnqueueOptions{
		ForcePlay: input.ForcePlay,
		StartAt:   result.StartAt,
	})
	if err != nil {
		return nil, err
	}

	return &PlayOutput{Tracks: result.Tracks}, nil
}

// Skip skips the current track.
func (p *PlayerService) Skip(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.Skip(ctx)
}

// Previous rewinds to the most recently played track.
func (p *PlayerService) Previous(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.Previous(ctx)
}

// JumpTo plays an arbitrary track from the displayed queue or history.
func (p *PlayerService) JumpTo(ctx context.Context, input JumpInput) error {
	session := p.registry.Get(input.GuildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.JumpTo(ctx, input.Index, input.FromHistory)
}

// Stop clears the queue and stops the current track.
func (p *PlayerService) Stop(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.StopAll(ctx)
}

// TogglePause toggles between playing and paused.
func (p *PlayerService) TogglePause(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.TogglePause(ctx)
}

// ToggleFilter toggles the audio filter chain.
func (p *PlayerService) ToggleFilter(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.ToggleFilter(ctx)
}

// SetVolume sets the playback volume (0-100).
func (p *PlayerService) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}
	return session.SetVolume(ctx, volume)
}

// Disconnect tears down the guild's session.
func (p *PlayerService) Disconnect(ctx context.Context, guildID snowflake.ID) error {
	if p.registry.Get(guildID) == nil {
		return domain.ErrNotConnected
	}
	p.registry.Remove(ctx, guildID)
	return nil
}

// Snapshot returns the guild's session snapshot, or nil if no session
// exists.
func (p *PlayerService) Snapshot(guildID snowflake.ID) *domain.SessionSnapshot {
	session := p.registry.Get(guildID)
	if session == nil {
		return nil
	}
	snapshot := session.Snapshot()
	return &snapshot
}
