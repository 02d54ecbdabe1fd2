// Package gateway sends listing updates to Discord. The engine talks to the
// Gateway interface; the concrete implementation wraps a discordgo session,
// with a no-op fallback for deployments without a bot token.
package gateway

import (
	"context"
	"fmt"
)

// Gateway is the messaging surface the update engine drives. All channel
// operations are addressed by Discord channel ID.
type Gateway interface {
	// PostMessage sends a plain text message to a channel.
	PostMessage(ctx context.Context, channelID, content string) error

	// PostEmbed sends an embed to a channel and returns the new message ID.
	PostEmbed(ctx context.Context, channelID string, embed *Embed) (string, error)

	// EditEmbed replaces the embed on an existing message.
	EditEmbed(ctx context.Context, channelID, messageID string, embed *Embed) error

	// RenameChannel changes a channel's name.
	RenameChannel(ctx context.Context, channelID, name string) error

	// MoveChannel reparents a channel under a category.
	MoveChannel(ctx context.Context, channelID, categoryID string) error
}

// Error wraps a failed gateway operation with enough context to log it
// without losing the underlying cause.
type Error struct {
	Op        string
	ChannelID string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s (channel %s): %v", e.Op, e.ChannelID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Embed is a transport-neutral message embed. EmbedField values render
// inline side by side in Discord.
type Embed struct {
	Title        string
	URL          string
	Color        int
	Description  string
	Fields       []EmbedField
	ThumbnailURL string
	Footer       string
}

// EmbedField is a single name/value pair in an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}
