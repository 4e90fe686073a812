package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
)

// IdleMonitor tears down sessions whose voice channel holds no real
// listeners. Each guild gets at most one pending grace timer; a listener
// rejoining during the grace window cancels it, and occupancy is re-checked
// when the timer fires so teardown never acts on stale information.
type IdleMonitor struct {
	registry   *SessionRegistry
	voiceState ports.VoiceStateProvider
	grace      time.Duration

	mu      sync.Mutex
	pending map[snowflake.ID]context.CancelFunc
}

// NewIdleMonitor creates an IdleMonitor with the given grace period.
func NewIdleMonitor(
	registry *SessionRegistry,
	voiceState ports.VoiceStateProvider,
	grace time.Duration,
) *IdleMonitor {
	return &IdleMonitor{
		registry:   registry,
		voiceState: voiceState,
		grace:      grace,
		pending:    make(map[snowflake.ID]context.CancelFunc),
	}
}

// OnListenerCountChanged handles a voice-state change in a guild. Call it
// for every voice state update the hosting framework delivers.
func (m *IdleMonitor) OnListenerCountChanged(guildID snowflake.ID) {
	if m.registry.Get(guildID) == nil {
		return
	}

	count, err := m.voiceState.ListenerCount(guildID)
	if err != nil {
		slog.Warn("failed to count listeners", "guild", guildID, "error", err)
		return
	}

	if count > 0 {
		m.cancelPending(guildID)
		return
	}

	m.schedule(guildID)
}

// Stop cancels all pending teardown timers.
func (m *IdleMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for guildID, cancel := range m.pending {
		cancel()
		delete(m.pending, guildID)
	}
}

func (m *IdleMonitor) schedule(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[guildID]; ok {
		// A grace timer is already running for this guild.
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.pending[guildID] = cancel

	slog.Debug("voice channel empty, scheduling teardown",
		"guild", guildID, "grace", m.grace)

	go func() {
		// A plain time.After would keep its timer alive until expiry even
		// after a rejoin cancels us.
		timer := time.NewTimer(m.grace)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		m.mu.Lock()
		delete(m.pending, guildID)
		m.mu.Unlock()

		// Re-check occupancy: a listener may have rejoined while we waited.
		count, err := m.voiceState.ListenerCount(guildID)
		if err != nil || count > 0 {
			return
		}

		session := m.registry.Get(guildID)
		if session == nil {
			return
		}

		slog.Info("voice channel still empty after grace period, disconnecting",
			"guild", guildID)

		teardownCtx, cancelTeardown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelTeardown()

		if err := session.StopAll(teardownCtx); err != nil {
			slog.Warn("failed to stop playback during idle teardown",
				"guild", guildID, "error", err)
		}
		m.registry.Remove(teardownCtx, guildID)
	}()
}

func (m *IdleMonitor) cancelPending(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.pending[guildID]; ok {
		cancel()
		delete(m.pending, guildID)
		slog.Debug("listener rejoined, cancelled teardown", "guild", guildID)
	}
}
