package client

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-chat-service/internal/models"
)

func msg(id string, ts int64, seq int64) models.ChatMessage {
	return models.ChatMessage{ID: id, Body: "b-" + id, Kind: models.KindText, CreatedAt: ts, Seq: seq}
}

func TestFeedAppendDeduplicatesByID(t *testing.T) {
	feed := NewFeed(10)

	require.True(t, feed.Append(msg("m1", 1000, 1)))
	// Same id via a second delivery path is a no-op, not a replacement.
	require.False(t, feed.Append(msg("m1", 2000, 9)))

	snap := feed.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(1000), snap[0].CreatedAt)
}

func TestFeedOrdersByTimestampThenSeq(t *testing.T) {
	feed := NewFeed(10)
	feed.Append(msg("m3", 3000, 5))
	feed.Append(msg("m1", 1000, 1))
	feed.Append(msg("m2b", 2000, 3))
	feed.Append(msg("m2a", 2000, 2))

	snap := feed.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, []string{"m1", "m2a", "m2b", "m3"}, []string{snap[0].ID, snap[1].ID, snap[2].ID, snap[3].ID})
}

func TestFeedTrimsOldestBeyondPushCap(t *testing.T) {
	feed := NewFeed(3)
	for i := 1; i <= 5; i++ {
		feed.Append(msg(fmt.Sprintf("m%d", i), int64(i*1000), int64(i)))
	}

	snap := feed.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "m3", snap[0].ID)
	assert.Equal(t, "m5", snap[2].ID)

	// A trimmed id may legitimately come back through a poll merge.
	feed.Merge([]models.ChatMessage{msg("m1", 1000, 1)})
	assert.Equal(t, 4, feed.Len())
}

func TestFeedMergeIsIdempotent(t *testing.T) {
	feed := NewFeed(10)
	feed.Append(msg("m1", 1000, 1))
	feed.Append(msg("m2", 2000, 2))

	window := []models.ChatMessage{msg("m1", 1000, 1), msg("m2", 2000, 2), msg("m3", 3000, 3)}
	feed.Merge(window)
	feed.Merge(window)

	snap := feed.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "m3", snap[2].ID)
}

func TestFeedReplaceWholesale(t *testing.T) {
	feed := NewFeed(10)
	feed.Append(msg("old", 500, 1))

	feed.Replace([]models.ChatMessage{msg("m1", 1000, 2), msg("m2", 2000, 3)})

	snap := feed.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "m1", snap[0].ID)
	assert.Equal(t, "m2", feed.LastID())

	// The replaced-away id can be appended again afterwards.
	assert.True(t, feed.Append(msg("old", 500, 1)))
}

func TestFeedRemoveAndClear(t *testing.T) {
	feed := NewFeed(10)
	feed.Append(msg("m1", 1000, 1))
	feed.Append(msg("m2", 2000, 2))

	feed.Remove("m1")
	assert.Equal(t, 1, feed.Len())
	feed.Remove("m1") // already gone, no-op

	feed.Clear()
	assert.Zero(t, feed.Len())
	assert.Equal(t, "", feed.LastID())
}
