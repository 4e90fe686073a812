package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler handles a slash command interaction.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is a handler for any Discord gateway event. It must match one
// of discordgo's handler signatures, e.g.
// func(s *discordgo.Session, e *discordgo.VoiceStateUpdate).
type EventHandler any

// ModuleDependencies provides dependencies that modules may need during
// initialization.
type ModuleDependencies struct {
	Session *discordgo.Session
}

// Module is the interface every bot module implements.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the slash commands this module provides.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers maps command names to their handlers.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers returns gateway event handlers for this module.
	EventHandlers() []EventHandler

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules that load
// configuration from the environment. LoadConfig runs before Init and before
// the Discord connection is established.
type ConfigurableModule interface {
	LoadConfig() error
}
