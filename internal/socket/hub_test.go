package socket

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"recycle-pickup-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu        sync.Mutex
	messages  [][]byte
	closed    bool
	err       error
	deadlines int
	// block, when set, stalls every write until it is closed.
	block chan struct{}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines++
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) events(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, raw := range c.messages {
		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m.Event)
	}
	return out
}

// waitFor gives the client's writer goroutine time to drain its queue.
func waitFor(t *testing.T, conn *fakeConn, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return conn.count() >= n }, time.Second, 5*time.Millisecond)
}

func TestHubRegisterReplacesConnection(t *testing.T) {
	h := NewHub()
	first, second := &fakeConn{}, &fakeConn{}

	h.Register("u1", models.AccountClient, first)
	h.Register("u1", models.AccountClient, second)
	assert.True(t, first.isClosed())

	// The stale connection's cleanup must not drop the new one.
	h.Unregister("u1", first)
	assert.True(t, h.Online("u1"))

	require.NoError(t, h.Send("u1", []byte("hi")))
	waitFor(t, second, 1)
	assert.Equal(t, 0, first.count())

	h.Unregister("u1", second)
	assert.False(t, h.Online("u1"))
	assert.NoError(t, h.Send("u1", []byte("hi")), "offline users are skipped")
}

func TestHubBroadcastByRole(t *testing.T) {
	h := NewHub()
	d1, d2, c1 := &fakeConn{}, &fakeConn{err: errors.New("broken pipe")}, &fakeConn{}
	h.Register("d1", models.AccountDriver, d1)
	h.Register("d2", models.AccountDriver, d2)
	h.Register("c1", models.AccountClient, c1)

	sent := h.Broadcast(models.AccountDriver, []byte("x"))

	assert.Equal(t, 2, sent)
	waitFor(t, d1, 1)
	assert.Equal(t, 0, c1.count())

	// A failed write closes the connection so its read loop unregisters it.
	assert.Eventually(t, d2.isClosed, time.Second, 5*time.Millisecond)
}

func TestHubStalledConnectionDoesNotBlockSenders(t *testing.T) {
	h := NewHub()
	stalled := &fakeConn{block: make(chan struct{})}
	defer close(stalled.block)
	healthy := &fakeConn{}
	h.Register("slow", models.AccountDriver, stalled)
	h.Register("fast", models.AccountDriver, healthy)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// One message is held by the stalled writer, the rest fill its queue.
		for i := 0; i < sendQueueSize+5; i++ {
			h.Broadcast(models.AccountDriver, []byte("x"))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a stalled connection")
	}

	// The stalled writer holds at most one message, so the queue overflows.
	var err error
	for i := 0; i <= sendQueueSize && err == nil; i++ {
		err = h.Send("slow", []byte("y"))
	}
	assert.ErrorIs(t, err, ErrQueueFull)
	waitFor(t, healthy, sendQueueSize)
}

func TestHubSetsWriteDeadline(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register("u1", models.AccountClient, conn)

	require.NoError(t, h.Send("u1", []byte("hi")))
	waitFor(t, conn, 1)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Equal(t, 1, conn.deadlines)
}

func assertEvents(t *testing.T, conn *fakeConn, want ...string) {
	t.Helper()
	waitFor(t, conn, len(want))
	assert.Equal(t, want, conn.events(t))
}

func TestNotifier(t *testing.T) {
	h := NewHub()
	d1, d2, creator := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Register("d1", models.AccountDriver, d1)
	h.Register("d2", models.AccountDriver, d2)
	h.Register("u1", models.AccountClient, creator)
	n := &Notifier{Hub: h}

	p := &models.Pickup{ID: "p1", Status: models.StatusPending, CreatedBy: models.Creator{UserID: "u1"}}
	n.PickupCreated(p)
	assertEvents(t, d1, EventPickupCreated)

	accepted := *p
	accepted.Status = models.StatusAccepted
	accepted.AcceptedBy = "d1"
	n.PickupUpdated(&accepted, models.StatusPending)

	assertEvents(t, creator, EventPickupUpdated)
	assertEvents(t, d1, EventPickupCreated, EventPickupUpdated, EventPickupTaken)
	assertEvents(t, d2, EventPickupCreated, EventPickupTaken)

	started := accepted
	started.Status = models.StatusInProgress
	n.PickupUpdated(&started, models.StatusAccepted)
	assertEvents(t, creator, EventPickupUpdated, EventPickupUpdated)
	assertEvents(t, d1, EventPickupCreated, EventPickupUpdated, EventPickupTaken, EventPickupUpdated)
	assert.Len(t, d2.events(t), 2)
}
