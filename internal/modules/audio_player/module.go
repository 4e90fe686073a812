package audio_player

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/bot"
	"github.com/groovebot/groovebot/internal/modules/audio_player/application/events"
	"github.com/groovebot/groovebot/internal/modules/audio_player/application/usecases"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
	"github.com/groovebot/groovebot/internal/modules/audio_player/infrastructure"
	"github.com/groovebot/groovebot/internal/modules/audio_player/presentation"
)

// commandCooldown is how often each command may run per guild.
const commandCooldown = time.Second

func init() {
	bot.Register(&AudioPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*AudioPlayerModule)(nil)

// AudioPlayerModule provides audio playback commands.
type AudioPlayerModule struct {
	config *Config

	engine              *infrastructure.LavalinkEngine
	registry            *usecases.SessionRegistry
	idleMonitor         *usecases.IdleMonitor
	bus                 *events.Bus
	notificationHandler *events.NotificationHandler
	commandHandlers     *presentation.Handlers
	eventHandlers       *presentation.EventHandlers

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *AudioPlayerModule) Name() string {
	return "audio_player"
}

// Commands returns the slash commands for this module.
func (m *AudioPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *AudioPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":       m.commandHandlers.HandlePlay,
		"skip":       m.commandHandlers.HandleSkip,
		"previous":   m.commandHandlers.HandlePrevious,
		"jump":       m.commandHandlers.HandleJump,
		"pause":      m.commandHandlers.HandlePause,
		"stop":       m.commandHandlers.HandleStop,
		"volume":     m.commandHandlers.HandleVolume,
		"filter":     m.commandHandlers.HandleFilter,
		"disconnect": m.commandHandlers.HandleDisconnect,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *AudioPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			if m.eventHandlers != nil {
				m.eventHandlers.HandleVoiceServerUpdate(s, event)
			}
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			if m.eventHandlers != nil {
				m.eventHandlers.HandleVoiceStateUpdate(s, event)
			}
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *AudioPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *AudioPlayerModule) Init(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.bus = events.NewBus(events.DefaultBufferSize)

	engine, err := infrastructure.NewLavalinkEngine(deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
	})
	if err != nil {
		return err
	}
	m.engine = engine

	m.registry = usecases.NewSessionRegistry(engine, m.bus)
	engine.SetTrackEndHandler(m.handleTrackEnd)

	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	view := infrastructure.NewPlayerView(deps.Session)

	m.notificationHandler = events.NewNotificationHandler(m.bus, view)
	m.notificationHandler.Start(m.ctx)

	m.idleMonitor = usecases.NewIdleMonitor(m.registry, voiceState, m.config.IdleGrace)

	player := usecases.NewPlayerService(m.registry, engine, voiceState)
	cooldowns := presentation.NewCooldownGate(commandCooldown)
	m.commandHandlers = presentation.NewHandlers(player, cooldowns)
	m.eventHandlers = presentation.NewEventHandlers(engine, m.idleMonitor)

	slog.Info("audio_player module initialized", "idle_grace", m.config.IdleGrace)

	return nil
}

// handleTrackEnd advances the guild's queue when the engine reports a track
// completed on its own. Stop/replace reasons come from our own commands and
// must not advance the queue a second time.
func (m *AudioPlayerModule) handleTrackEnd(guildID snowflake.ID, reason domain.TrackEndReason) {
	if !reason.ShouldAdvanceQueue() {
		return
	}

	session := m.registry.Get(guildID)
	if session == nil {
		return
	}

	// Runs on the engine's websocket goroutine; advancing takes the session
	// lock and may issue further engine calls, so hand it off.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := session.TrackFinished(ctx); err != nil {
			slog.Error("failed to advance queue after track end",
				"guild", guildID, "error", err)
		}
	}()
}

// Shutdown cleans up module resources.
func (m *AudioPlayerModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}

	if m.idleMonitor != nil {
		m.idleMonitor.Stop()
	}

	if m.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.registry.Shutdown(ctx)
	}

	if m.notificationHandler != nil {
		m.notificationHandler.Stop()
	}

	if m.bus != nil {
		m.bus.Close()
	}

	if m.engine != nil {
		m.engine.Close()
	}

	return nil
}
