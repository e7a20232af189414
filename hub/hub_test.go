package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/logger"
)

// chanConn is a test push channel backed by a slice
type chanConn struct {
	mu      sync.Mutex
	updates []*Update
	failing bool
}

func (c *chanConn) Send(update *Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("connection closed")
	}
	c.updates = append(c.updates, update)
	return nil
}

func (c *chanConn) received() []*Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Update(nil), c.updates...)
}

func TestPublishUpdateReachesAllOwnerSubscribers(t *testing.T) {
	h := New(logger.NewTestLogger())

	alice1 := &chanConn{}
	alice2 := &chanConn{}
	bob := &chanConn{}

	h.Attach("alice", alice1)
	h.Attach("alice", alice2)
	h.Attach("bob", bob)

	h.PublishUpdate("alice", NewJobUpdate("JB1", "processing", 5, "started"))

	assert.Len(t, alice1.received(), 1)
	assert.Len(t, alice2.received(), 1)
	assert.Empty(t, bob.received(), "updates must not leak across owners")
}

func TestDeadConnectionIsDroppedOnDeliveryError(t *testing.T) {
	h := New(logger.NewTestLogger())

	live := &chanConn{}
	dead := &chanConn{failing: true}

	h.Attach("alice", live)
	h.Attach("alice", dead)
	require.Equal(t, 2, h.SubscriberCount("alice"))

	h.PublishUpdate("alice", NewJobUpdate("JB1", "publishing", 50, ""))

	assert.Equal(t, 1, h.SubscriberCount("alice"), "erroring handle removed, no retry")
	assert.Len(t, live.received(), 1)

	// The dead handle must not receive subsequent updates.
	h.PublishUpdate("alice", NewJobUpdate("JB1", "completed", 100, ""))
	assert.Len(t, live.received(), 2)
}

func TestDetachRemovesHandle(t *testing.T) {
	h := New(logger.NewTestLogger())

	conn := &chanConn{}
	handle := h.Attach("alice", conn)
	require.Equal(t, 1, h.SubscriberCount("alice"))

	h.Detach(handle)
	assert.Zero(t, h.SubscriberCount("alice"))

	// Detach is idempotent.
	h.Detach(handle)
	h.Detach(nil)

	h.PublishUpdate("alice", NewJobUpdate("JB1", "completed", 100, ""))
	assert.Empty(t, conn.received())
}

func TestBroadcastAllReachesEveryOwner(t *testing.T) {
	h := New(logger.NewTestLogger())

	alice := &chanConn{}
	bob := &chanConn{}
	h.Attach("alice", alice)
	h.Attach("bob", bob)

	h.BroadcastAll(NewSystemUpdate("maintenance window at midnight"))

	require.Len(t, alice.received(), 1)
	require.Len(t, bob.received(), 1)
	assert.Equal(t, UpdateTypeSystem, alice.received()[0].Type)
}

func TestPerJobUpdateOrderPreserved(t *testing.T) {
	h := New(logger.NewTestLogger())

	conn := &chanConn{}
	h.Attach("alice", conn)

	progress := []int{5, 10, 50, 80, 100}
	for _, p := range progress {
		h.PublishUpdate("alice", NewJobUpdate("JB1", "publishing", p, ""))
	}

	got := conn.received()
	require.Len(t, got, len(progress))
	for i, update := range got {
		assert.Equal(t, progress[i], update.Progress)
	}
}
