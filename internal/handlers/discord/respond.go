package discord

import (
	"github.com/bwmarrin/discordgo"
)

// RespondWithEphemeralMessage sends an ephemeral message response to an interaction
func RespondWithEphemeralMessage(api API, i *discordgo.InteractionCreate, message string) error {
	return api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// RespondWithClaimedMessage updates an escalation message in place: the
// alert stays, the claim button goes and the owner is shown
func RespondWithClaimedMessage(api API, i *discordgo.InteractionCreate, claimed string) error {
	var embeds []*discordgo.MessageEmbed
	if i.Message != nil {
		embeds = i.Message.Embeds
	}

	return api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    claimed,
			Embeds:     embeds,
			Components: []discordgo.MessageComponent{},
		},
	})
}
