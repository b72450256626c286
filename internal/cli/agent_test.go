package cli

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/awsbrowse/internal/config"
	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/source/wsfeed"
)

func TestServeFeed(t *testing.T) {
	src, err := fixture.Open(writeInventory(t))
	require.NoError(t, err)
	defer src.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveFeed(ctx, ln, src, discard)
	}()

	client, err := wsfeed.Dial(ctx, "ws://"+ln.Addr().String()+FeedPath, wsfeed.DefaultConfig(), discard)
	require.NoError(t, err)

	roles, err := client.List(ctx, resources.KindRole)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "deploy", roles[0].Name)

	children, err := client.Children(ctx, resources.KindBucket, "assets")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "style.css", children[0].Name)

	require.NoError(t, client.Close())
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestAgent_RejectsAgentSource(t *testing.T) {
	_, err := execute(t, "--source", "agent", "--inventory", "ws://127.0.0.1:1/feed", "agent")
	assert.ErrorIs(t, err, config.ErrInvalid)
}
