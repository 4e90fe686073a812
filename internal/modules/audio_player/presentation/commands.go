package presentation

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the audio player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a track from URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL or search term",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "force",
					Description: "Play immediately, pushing the current track back into the queue",
					Required:    false,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
		},
		{
			Name:        "previous",
			Description: "Go back to the previously played track",
		},
		{
			Name:        "jump",
			Description: "Jump to a track in the queue or history",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Position of the track as shown in the player (1-indexed)",
					Required:    true,
					MinValue:    floatPtr(1),
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "history",
					Description: "Jump into the played history instead of the queue",
					Required:    false,
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause or resume playback",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "volume",
			Description: "Set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "value",
					Description: "Volume from 0 to 100",
					Required:    true,
					MinValue:    floatPtr(0),
					MaxValue:    100,
				},
			},
		},
		{
			Name:        "filter",
			Description: "Toggle the cursed audio filter",
		},
		{
			Name:        "disconnect",
			Description: "Disconnect from the voice channel",
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
