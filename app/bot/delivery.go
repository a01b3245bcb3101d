package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/dokibot/club-assistant/app/notify"
)

// ChannelDelivery posts notifications into the channel held by ServerConfig,
// mentioning the configured role when one is set.
type ChannelDelivery struct {
	session   *discordgo.Session
	serverCfg *notify.ServerConfig
}

func NewChannelDelivery(session *discordgo.Session, serverCfg *notify.ServerConfig) *ChannelDelivery {
	return &ChannelDelivery{session: session, serverCfg: serverCfg}
}

func (d *ChannelDelivery) Send(_ context.Context, n notify.Notification) error {
	channelID := d.serverCfg.ChannelID()
	if channelID == "" {
		return fmt.Errorf("notification channel is not configured")
	}

	content := n.Type.Prefix()
	if roleID := d.serverCfg.RoleID(); roleID != "" {
		content = fmt.Sprintf("<@&%s> %s", roleID, content)
	}

	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		URL:         n.URL,
		Color:       0xfbb6ce,
	}
	if n.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: n.ImageURL}
	}
	if n.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: n.Author}
	}
	if n.SourceName != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: n.SourceName}
	}
	if !n.PostedAt.IsZero() {
		embed.Timestamp = n.PostedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	_, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("failed to send channel message: %w", err)
	}

	return nil
}
