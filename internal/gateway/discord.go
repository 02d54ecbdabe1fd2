package gateway

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/dmfarley/bidwatch/internal/metrics"
)

// DiscordGateway implements Gateway on a discordgo session. Only REST calls
// are used, so the session does not need an open websocket connection.
type DiscordGateway struct {
	session *discordgo.Session
}

// NewDiscordGateway creates a gateway from a bot token.
func NewDiscordGateway(token string) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	return &DiscordGateway{session: session}, nil
}

// PostMessage sends a plain text message to a channel.
func (g *DiscordGateway) PostMessage(ctx context.Context, channelID, content string) error {
	_, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return g.fail("post_message", channelID, err)
	}
	return nil
}

// PostEmbed sends an embed to a channel and returns the new message ID.
func (g *DiscordGateway) PostEmbed(ctx context.Context, channelID string, embed *Embed) (string, error) {
	msg, err := g.session.ChannelMessageSendEmbed(
		channelID,
		toMessageEmbed(embed),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return "", g.fail("post_embed", channelID, err)
	}
	return msg.ID, nil
}

// EditEmbed replaces the embed on an existing message.
func (g *DiscordGateway) EditEmbed(ctx context.Context, channelID, messageID string, embed *Embed) error {
	_, err := g.session.ChannelMessageEditEmbed(
		channelID,
		messageID,
		toMessageEmbed(embed),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return g.fail("edit_embed", channelID, err)
	}
	return nil
}

// RenameChannel changes a channel's name.
func (g *DiscordGateway) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := g.session.ChannelEdit(
		channelID,
		&discordgo.ChannelEdit{Name: name},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return g.fail("rename_channel", channelID, err)
	}
	return nil
}

// MoveChannel reparents a channel under a category.
func (g *DiscordGateway) MoveChannel(ctx context.Context, channelID, categoryID string) error {
	_, err := g.session.ChannelEdit(
		channelID,
		&discordgo.ChannelEdit{ParentID: categoryID},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return g.fail("move_channel", channelID, err)
	}
	return nil
}

func (g *DiscordGateway) fail(op, channelID string, err error) error {
	metrics.GatewayErrorsTotal.WithLabelValues(op).Inc()
	return &Error{Op: op, ChannelID: channelID, Err: err}
}

func toMessageEmbed(e *Embed) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		URL:         e.URL,
		Color:       e.Color,
		Description: e.Description,
	}

	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	if e.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}

	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}

	return embed
}
