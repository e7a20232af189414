package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/crosscast/logger"
	"github.com/crosscast/crosscast/platform"
)

func TestSimulatedPrepare(t *testing.T) {
	sim := NewSimulated(logger.NewTestLogger())

	prepared, err := sim.Prepare(context.Background(), "media/clip.mp4", platform.YouTube)
	require.NoError(t, err)
	assert.Equal(t, "media/clip.youtube.mp4", prepared)

	prepared, err = sim.Prepare(context.Background(), "media/raw-clip", platform.TikTok)
	require.NoError(t, err)
	assert.Equal(t, "media/raw-clip.tiktok", prepared)
}

func TestSimulatedPublish(t *testing.T) {
	sim := NewSimulated(logger.NewTestLogger())

	post, err := sim.Publish(context.Background(), platform.Instagram, "media/clip.mp4", "Launch", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, post.PostID)
	assert.Contains(t, post.PostURL, "instagram")
	assert.Contains(t, post.PostURL, post.PostID)
}
