package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
	"github.com/groovebot/groovebot/internal/modules/audio_player/domain"
)

// Embed colors.
const (
	colorPlaying = 0x1DB954
	colorIdle    = 0x95A5A6
)

// How many upcoming and recently played tracks the player embed lists.
const (
	queueExcerptSize   = 10
	historyExcerptSize = 5
)

// playerMessage identifies the guild's persistent player message.
type playerMessage struct {
	channelID snowflake.ID
	messageID string
}

// PlayerView renders playback state as a single Discord embed per guild,
// edited in place as the state changes.
type PlayerView struct {
	session *discordgo.Session

	mu       sync.Mutex
	messages map[snowflake.ID]playerMessage
}

// NewPlayerView creates a PlayerView.
func NewPlayerView(session *discordgo.Session) *PlayerView {
	return &PlayerView{
		session:  session,
		messages: make(map[snowflake.ID]playerMessage),
	}
}

// Render updates the guild's player message to match the snapshot, creating
// the message on first render and recreating it when the notification channel
// changes.
func (v *PlayerView) Render(ctx context.Context, snapshot domain.SessionSnapshot) error {
	if snapshot.NotificationChannelID == 0 {
		return nil
	}

	embed := buildPlayerEmbed(snapshot)

	v.mu.Lock()
	defer v.mu.Unlock()

	existing, ok := v.messages[snapshot.GuildID]
	if ok && existing.channelID == snapshot.NotificationChannelID {
		_, err := v.session.ChannelMessageEditEmbed(
			existing.channelID.String(), existing.messageID, embed,
		)
		if err == nil {
			return nil
		}
		// The message may have been deleted by a moderator; fall through and
		// send a fresh one.
		delete(v.messages, snapshot.GuildID)
	} else if ok {
		// Player moved to a different text channel.
		_ = v.session.ChannelMessageDelete(existing.channelID.String(), existing.messageID)
		delete(v.messages, snapshot.GuildID)
	}

	msg, err := v.session.ChannelMessageSendEmbed(
		snapshot.NotificationChannelID.String(), embed,
	)
	if err != nil {
		return fmt.Errorf("failed to send player message: %w", err)
	}

	v.messages[snapshot.GuildID] = playerMessage{
		channelID: snapshot.NotificationChannelID,
		messageID: msg.ID,
	}
	return nil
}

// Remove deletes the guild's player message, if any.
func (v *PlayerView) Remove(ctx context.Context, guildID snowflake.ID) error {
	v.mu.Lock()
	existing, ok := v.messages[guildID]
	if ok {
		delete(v.messages, guildID)
	}
	v.mu.Unlock()

	if !ok {
		return nil
	}
	return v.session.ChannelMessageDelete(existing.channelID.String(), existing.messageID)
}

func buildPlayerEmbed(snapshot domain.SessionSnapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: "Player"},
	}

	if snapshot.Current == nil {
		embed.Color = colorIdle
		embed.Description = "Nothing is playing."
	} else {
		track := snapshot.Current

		status := "Now Playing"
		if snapshot.Paused {
			status = "Paused"
		}

		embed.Color = colorPlaying
		embed.Author.Name = status
		embed.Title = track.Title
		embed.URL = track.URI
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: track.Artist, Inline: true},
			{Name: "Duration", Value: track.FormattedDuration(), Inline: true},
		}
		if track.ArtworkURL != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
		}
		if snapshot.FiltersApplied {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Filter", Value: "cursed", Inline: true,
			})
		}
	}

	if queue := formatTrackLines(snapshot.Queue, queueExcerptSize, false); queue != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Up Next (%d)", len(snapshot.Queue)),
			Value: queue,
		})
	}

	if history := formatTrackLines(snapshot.History, historyExcerptSize, true); history != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Recently Played",
			Value: history,
		})
	}

	return embed
}

// formatTrackLines renders a numbered excerpt of a track list. For history the
// tail is shown (most recent last) since Previous pops from the back.
func formatTrackLines(tracks []*domain.Track, limit int, tail bool) string {
	if len(tracks) == 0 {
		return ""
	}

	offset := 0
	shown := tracks
	if len(tracks) > limit {
		if tail {
			offset = len(tracks) - limit
			shown = tracks[offset:]
		} else {
			shown = tracks[:limit]
		}
	}

	var b strings.Builder
	for i, track := range shown {
		fmt.Fprintf(&b, "%d. %s (%s)\n", offset+i+1, track.Title, track.FormattedDuration())
	}
	if !tail && len(tracks) > limit {
		fmt.Fprintf(&b, "... and %d more\n", len(tracks)-limit)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Ensure PlayerView implements ports.View.
var _ ports.View = (*PlayerView)(nil)
