package presentation

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/bot"
	"github.com/groovebot/groovebot/internal/modules/audio_player/application/usecases"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorWarning = 0xF1C40F
	colorError   = 0xE74C3C
)

// Handlers holds all the command handlers.
type Handlers struct {
	player    *usecases.PlayerService
	cooldowns *CooldownGate
}

// NewHandlers creates new Handlers.
func NewHandlers(player *usecases.PlayerService, cooldowns *CooldownGate) *Handlers {
	return &Handlers{
		player:    player,
		cooldowns: cooldowns,
	}
}

// HandlePlay handles the /play command.
func (h *Handlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "play") {
		return respondCooldown(r)
	}

	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid channel")
	}

	var query string
	var force bool
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "force":
			force = opt.BoolValue()
		}
	}

	output, err := h.player.Play(context.Background(), usecases.PlayInput{
		GuildID:               guildID,
		UserID:                userID,
		NotificationChannelID: notificationChannelID,
		Query:                 query,
		ForcePlay:             force,
	})
	if err != nil {
		return respondPlaybackError(r, err)
	}

	return respondQueueAdded(r, output.Tracks, force)
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "skip") {
		return respondCooldown(r)
	}

	if err := h.player.Skip(context.Background(), guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	return respondSuccess(r, "Skipped.")
}

// HandlePrevious handles the /previous command.
func (h *Handlers) HandlePrevious(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "previous") {
		return respondCooldown(r)
	}

	if err := h.player.Previous(context.Background(), guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	return respondSuccess(r, "Rewound to the previous track.")
}

// HandleJump handles the /jump command.
func (h *Handlers) HandleJump(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "jump") {
		return respondCooldown(r)
	}

	var position int
	var fromHistory bool
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "position":
			position = int(opt.IntValue())
		case "history":
			fromHistory = opt.BoolValue()
		}
	}

	err = h.player.JumpTo(context.Background(), usecases.JumpInput{
		GuildID:     guildID,
		Index:       position - 1,
		FromHistory: fromHistory,
	})
	if err != nil {
		return respondPlaybackError(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Jumped to track %d.", position))
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "pause") {
		return respondCooldown(r)
	}

	if err := h.player.TogglePause(context.Background(), guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	paused := false
	if snapshot := h.player.Snapshot(guildID); snapshot != nil {
		paused = snapshot.Paused
	}
	if paused {
		return respondSuccess(r, "Paused playback.")
	}
	return respondSuccess(r, "Resumed playback.")
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "stop") {
		return respondCooldown(r)
	}

	if err := h.player.Stop(context.Background(), guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	return respondSuccess(r, "Stopped playback and cleared the queue.")
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "volume") {
		return respondCooldown(r)
	}

	var value int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "value" {
			value = int(opt.IntValue())
		}
	}

	if err := h.player.SetVolume(context.Background(), guildID, value); err != nil {
		return respondPlaybackError(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", value))
}

// HandleFilter handles the /filter command.
func (h *Handlers) HandleFilter(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "filter") {
		return respondCooldown(r)
	}

	if err := h.player.ToggleFilter(context.Background(), guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	enabled := false
	if snapshot := h.player.Snapshot(guildID); snapshot != nil {
		enabled = snapshot.FiltersApplied
	}
	if enabled {
		return respondSuccess(r, "Filter enabled.")
	}
	return respondSuccess(r, "Filter disabled.")
}

// HandleDisconnect handles the /disconnect command.
func (h *Handlers) HandleDisconnect(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if !h.cooldowns.Allow(guildID, "disconnect") {
		return respondCooldown(r)
	}

	if err := h.player.Disconnect(context.Background(), guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	return respondSuccess(r, "Disconnected.")
}

// respondPlaybackError maps playback errors onto user-facing embeds. User
// errors render as warnings; backend failures as errors.
func respondPlaybackError(r bot.Responder, err error) error {
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		return respondError(r, "The audio backend is unavailable right now. Try again in a moment.")
	}
	if domain.IsUserError(err) {
		return respondWarning(r, userErrorMessage(err))
	}
	return respondError(r, "Something went wrong.")
}

func userErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotInVoice):
		return "You need to be in a voice channel first."
	case errors.Is(err, domain.ErrNotConnected):
		return "Nothing is playing in this server."
	case errors.Is(err, domain.ErrNoTracksResolved):
		return "No tracks found for that query."
	case errors.Is(err, domain.ErrNothingPlaying):
		return "Nothing is playing right now."
	case errors.Is(err, domain.ErrQueueEmpty):
		return "The queue is empty."
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return "There is no track at that position."
	case errors.Is(err, domain.ErrVolumeOutOfRange):
		return "Volume must be between 0 and 100."
	default:
		return err.Error()
	}
}

// Response helpers.

func respondSuccess(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorSuccess,
	})
}

func respondWarning(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorWarning,
	})
}

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	})
}

func respondCooldown(r bot.Responder) error {
	return respondWarning(r, "Slow down. Try again in a second.")
}

func respondQueueAdded(r bot.Responder, tracks []*domain.Track, force bool) error {
	var description string
	switch {
	case len(tracks) > 1:
		description = fmt.Sprintf("Added **%d tracks** to the queue.", len(tracks))
	case tracks[0].URI != "":
		description = fmt.Sprintf("Added [%s](%s) to the queue.", tracks[0].Title, tracks[0].URI)
	default:
		description = fmt.Sprintf("Added **%s** to the queue.", tracks[0].Title)
	}
	if force {
		description += " Playing now."
	}
	return respondSuccess(r, description)
}

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
