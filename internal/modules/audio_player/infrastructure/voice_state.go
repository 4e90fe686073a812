package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
)

// VoiceStateProvider reads Discord voice state from the session's state cache.
type VoiceStateProvider struct {
	session *discordgo.Session
}

// NewVoiceStateProvider creates a VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{
		session: session,
	}
}

// GetUserVoiceChannel returns the voice channel the user currently occupies.
// Returns 0 if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return 0, err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return 0, err
			}
			return channelID, nil
		}
	}

	return 0, nil
}

// ListenerCount returns the number of non-bot users sharing the bot's voice
// channel in the guild. Returns 0 if the bot is not in a voice channel.
func (v *VoiceStateProvider) ListenerCount(guildID snowflake.ID) (int, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return 0, err
	}

	botID := v.session.State.User.ID

	var botChannelID string
	for _, vs := range guild.VoiceStates {
		if vs.UserID == botID {
			botChannelID = vs.ChannelID
			break
		}
	}
	if botChannelID == "" {
		return 0, nil
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != botChannelID || vs.UserID == botID {
			continue
		}
		member, err := v.session.State.Member(guild.ID, vs.UserID)
		if err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}

	return count, nil
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)
