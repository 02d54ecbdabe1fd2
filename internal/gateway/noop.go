package gateway

import (
	"context"
	"log/slog"
)

// NoopGateway implements Gateway by logging discarded operations. It is used
// when no Discord bot token is configured.
type NoopGateway struct {
	log *slog.Logger
}

// NewNoopGateway creates a gateway that discards operations with a log message.
func NewNoopGateway(log *slog.Logger) *NoopGateway {
	return &NoopGateway{log: log}
}

func (n *NoopGateway) PostMessage(_ context.Context, channelID, content string) error {
	n.log.Debug("message discarded (no gateway configured)",
		"channel_id", channelID,
		"content", content,
	)
	return nil
}

func (n *NoopGateway) PostEmbed(_ context.Context, channelID string, embed *Embed) (string, error) {
	n.log.Debug("embed discarded (no gateway configured)",
		"channel_id", channelID,
		"title", embed.Title,
	)
	return "", nil
}

func (n *NoopGateway) EditEmbed(_ context.Context, channelID, messageID string, embed *Embed) error {
	n.log.Debug("embed edit discarded (no gateway configured)",
		"channel_id", channelID,
		"message_id", messageID,
		"title", embed.Title,
	)
	return nil
}

func (n *NoopGateway) RenameChannel(_ context.Context, channelID, name string) error {
	n.log.Debug("channel rename discarded (no gateway configured)",
		"channel_id", channelID,
		"name", name,
	)
	return nil
}

func (n *NoopGateway) MoveChannel(_ context.Context, channelID, categoryID string) error {
	n.log.Debug("channel move discarded (no gateway configured)",
		"channel_id", channelID,
		"category_id", categoryID,
	)
	return nil
}
