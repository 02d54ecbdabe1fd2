package gateway

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopGateway(t *testing.T) {
	t.Parallel()

	g := NewNoopGateway(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	assert.NoError(t, g.PostMessage(ctx, "chan-1", "hello"))

	id, err := g.PostEmbed(ctx, "chan-1", &Embed{Title: "t"})
	require.NoError(t, err)
	assert.Empty(t, id)

	assert.NoError(t, g.EditEmbed(ctx, "chan-1", "msg-1", &Embed{Title: "t"}))
	assert.NoError(t, g.RenameChannel(ctx, "chan-1", "sold-thinkpad"))
	assert.NoError(t, g.MoveChannel(ctx, "chan-1", "cat-1"))
}
