package presentation

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/usecases"
	"github.com/groovebot/groovebot/internal/modules/audio_player/infrastructure"
)

// EventHandlers handles Discord gateway events for the audio player.
type EventHandlers struct {
	engine      *infrastructure.LavalinkEngine
	idleMonitor *usecases.IdleMonitor
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	engine *infrastructure.LavalinkEngine,
	idleMonitor *usecases.IdleMonitor,
) *EventHandlers {
	return &EventHandlers{
		engine:      engine,
		idleMonitor: idleMonitor,
	}
}

// HandleVoiceStateUpdate feeds voice state changes to the engine's voice
// handshake and to the idle monitor.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	h.engine.OnVoiceStateUpdate(event)

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}
	h.idleMonitor.OnListenerCountChanged(guildID)
}

// HandleVoiceServerUpdate forwards voice server updates to the engine's voice
// handshake.
func (h *EventHandlers) HandleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	h.engine.OnVoiceServerUpdate(event)
}
