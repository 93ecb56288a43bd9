package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-chat-service/internal/mocks"
	"community-chat-service/internal/models"
)

type fakeTransport struct {
	events chan models.ChatEvent

	mu     sync.Mutex
	frames []models.ClientFrame
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan models.ChatEvent, 16)}
}

func (t *fakeTransport) ReadEvent() (models.ChatEvent, error) {
	event, ok := <-t.events
	if !ok {
		return models.ChatEvent{}, io.EOF
	}
	return event, nil
}

func (t *fakeTransport) WriteFrame(frame models.ClientFrame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, frame)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	return nil
}

func (t *fakeTransport) sentFrames() []models.ClientFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ClientFrame(nil), t.frames...)
}

func alice() models.Identity {
	return models.Identity{ParticipantID: "alice", DisplayName: "Alice", Role: models.RoleParticipant}
}

func newTestController(dial Dialer) (*Controller, *Feed, *Poller) {
	feed := NewFeed(10)
	poller := NewPoller(new(mocks.HistoryFetcherMock), feed, time.Hour, 50)
	return NewController(alice(), dial, feed, poller, 10*time.Millisecond), feed, poller
}

func TestControllerConnectSendsJoinAndStopsPoller(t *testing.T) {
	transport := newFakeTransport()
	controller, _, poller := newTestController(nil)

	poller.Start(context.Background())
	controller.handleOpen(transport)

	assert.Equal(t, StateConnected, controller.State())
	assert.False(t, poller.Running(), "entering Connected must stop the poller synchronously")

	frames := transport.sentFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, models.FrameJoin, frames[0].Type)
	require.NotNil(t, frames[0].Identity)
	assert.Equal(t, "alice", frames[0].Identity.ParticipantID)
}

func TestControllerDisconnectStartsPoller(t *testing.T) {
	transport := newFakeTransport()
	controller, _, poller := newTestController(nil)

	controller.handleOpen(transport)
	controller.handleClose(context.Background())
	defer poller.Stop()

	assert.Equal(t, StateDisconnected, controller.State())
	assert.True(t, poller.Running(), "entering Disconnected must start the poller synchronously")
}

func TestControllerRunRejoinsAfterTransportLoss(t *testing.T) {
	var mu sync.Mutex
	var transports []*fakeTransport
	dial := func(ctx context.Context) (Transport, error) {
		transport := newFakeTransport()
		mu.Lock()
		transports = append(transports, transport)
		mu.Unlock()
		return transport, nil
	}

	controller, _, _ := newTestController(dial)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go controller.Run(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) >= 1 && len(transports[0].sentFrames()) == 1
	}, time.Second, 5*time.Millisecond)

	// Drop the first channel; the controller must redial and re-join.
	mu.Lock()
	first := transports[0]
	mu.Unlock()
	first.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(transports) < 2 {
			return false
		}
		frames := transports[1].sentFrames()
		return len(frames) == 1 && frames[0].Type == models.FrameJoin
	}, time.Second, 5*time.Millisecond, "reconnect must re-emit join with current identity")
}

func TestControllerRunStartsPollerWhileDialFails(t *testing.T) {
	dial := func(ctx context.Context) (Transport, error) {
		return nil, errors.New("connection refused")
	}

	controller, _, poller := newTestController(dial)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go controller.Run(ctx)

	require.Eventually(t, func() bool {
		return poller.Running()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateDisconnected, controller.State())
}

func TestControllerEventHandling(t *testing.T) {
	controller, feed, _ := newTestController(nil)

	pushed := msg("m1", 1000, 1)
	controller.handleEvent(models.ChatEvent{Type: models.EventMessage, Message: &pushed})
	assert.Equal(t, 1, feed.Len())

	// Duplicate push is discarded.
	controller.handleEvent(models.ChatEvent{Type: models.EventMessage, Message: &pushed})
	assert.Equal(t, 1, feed.Len())

	controller.handleEvent(models.ChatEvent{Type: models.EventPresence, Presence: []models.Identity{alice()}})
	require.Len(t, controller.Presence(), 1)

	controller.handleEvent(models.ChatEvent{Type: models.EventMessageDeleted, MessageID: "m1"})
	assert.Zero(t, feed.Len())

	feed.Append(msg("m2", 2000, 2))
	controller.handleEvent(models.ChatEvent{Type: models.EventHistoryCleared})
	assert.Zero(t, feed.Len())
}

func TestControllerBanLocksOutView(t *testing.T) {
	controller, _, _ := newTestController(nil)

	controller.handleEvent(models.ChatEvent{Type: models.EventStatusChanged, Status: &models.ModerationState{
		ParticipantID: "alice",
		Banned:        true,
	}})

	assert.True(t, controller.ViewBlocked())
	assert.True(t, controller.InputBlocked())

	_, err := controller.Send("hi", "")
	assert.ErrorIs(t, err, ErrSendBlocked)
}

func TestControllerTimeoutBlocksInputNotView(t *testing.T) {
	controller, _, _ := newTestController(nil)
	now := time.Now()
	controller.now = func() time.Time { return now }

	controller.handleEvent(models.ChatEvent{Type: models.EventStatusChanged, Status: &models.ModerationState{
		ParticipantID: "alice",
		TimeoutUntil:  now.Add(time.Minute).UnixMilli(),
	}})

	assert.False(t, controller.ViewBlocked())
	assert.True(t, controller.InputBlocked())

	// Expiry is purely time-based.
	controller.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, controller.InputBlocked())
}

func TestControllerIgnoresStatusForOtherParticipants(t *testing.T) {
	controller, _, _ := newTestController(nil)

	controller.handleEvent(models.ChatEvent{Type: models.EventStatusChanged, Status: &models.ModerationState{
		ParticipantID: "bob",
		Banned:        true,
	}})

	assert.False(t, controller.ViewBlocked())
}

func TestControllerSendOverChannel(t *testing.T) {
	transport := newFakeTransport()
	controller, _, _ := newTestController(nil)
	controller.handleOpen(transport)

	sent, err := controller.Send("hello", "")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, "alice", sent.SenderID)
	assert.Equal(t, models.KindText, sent.Kind)

	frames := transport.sentFrames()
	require.Len(t, frames, 2) // join + send
	assert.Equal(t, models.FrameSend, frames[1].Type)
}

func TestControllerSendWhileDisconnected(t *testing.T) {
	controller, _, _ := newTestController(nil)
	_, err := controller.Send("hello", "")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestControllerSendRejectsEmptyMessage(t *testing.T) {
	transport := newFakeTransport()
	controller, _, _ := newTestController(nil)
	controller.handleOpen(transport)

	_, err := controller.Send("", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	frames := transport.sentFrames()
	require.Len(t, frames, 1, "nothing beyond the join frame must go out")
}

func TestControllerImageOnlySend(t *testing.T) {
	transport := newFakeTransport()
	controller, _, _ := newTestController(nil)
	controller.handleOpen(transport)

	sent, err := controller.Send("", "https://example.com/cat.png")
	require.NoError(t, err)
	assert.Equal(t, models.KindImage, sent.Kind)
}
