package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"community-chat-service/internal/models"
)

// State of the session controller.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

var (
	ErrNotConnected = errors.New("channel is not connected")
	ErrSendBlocked  = errors.New("sending is blocked by moderation state")
	ErrEmptyMessage = errors.New("message has no content")
)

// Controller owns one browser session's realtime channel. It keeps the feed
// consistent across push delivery and fallback polling, re-joins with the
// current identity on every reconnect, and mirrors the participant's
// moderation state so the UI can lock itself without a reload.
type Controller struct {
	identity   models.Identity
	dial       Dialer
	feed       *Feed
	poller     *Poller
	retryDelay time.Duration
	now        func() time.Time

	mu        sync.Mutex
	state     State
	transport Transport
	status    models.ModerationState
	presence  []models.Identity
}

// NewController builds a controller in the Disconnected state.
func NewController(identity models.Identity, dial Dialer, feed *Feed, poller *Poller, retryDelay time.Duration) *Controller {
	return &Controller{
		identity:   identity,
		dial:       dial,
		feed:       feed,
		poller:     poller,
		retryDelay: retryDelay,
		now:        time.Now,
		state:      StateDisconnected,
	}
}

// Run connects and keeps the session alive until ctx is cancelled. While the
// channel is down the fallback poller covers history reconciliation.
func (c *Controller) Run(ctx context.Context) {
	for {
		transport, err := c.dial(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("channel dial failed")
			c.poller.Start(ctx)
		} else {
			c.handleOpen(transport)
			c.readLoop(transport)
			c.handleClose(ctx)
		}

		select {
		case <-ctx.Done():
			c.poller.Stop()
			return
		case <-time.After(c.retryDelay):
		}
	}
}

// handleOpen enters Connected: stop polling synchronously, then re-emit join
// with the current identity. Re-registering is always safe and restores
// presence visibility after a reconnect.
func (c *Controller) handleOpen(transport Transport) {
	c.poller.Stop()

	c.mu.Lock()
	c.state = StateConnected
	c.transport = transport
	c.mu.Unlock()

	identity := c.identity
	if err := transport.WriteFrame(models.ClientFrame{Type: models.FrameJoin, Identity: &identity}); err != nil {
		log.Debug().Err(err).Msg("join frame write failed")
	}
}

// handleClose enters Disconnected and synchronously starts the poller.
func (c *Controller) handleClose(ctx context.Context) {
	c.mu.Lock()
	if c.transport != nil {
		c.transport.Close()
		c.transport = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()

	c.poller.Start(ctx)
}

func (c *Controller) readLoop(transport Transport) {
	for {
		event, err := transport.ReadEvent()
		if err != nil {
			log.Debug().Err(err).Msg("channel read failed")
			return
		}
		c.handleEvent(event)
	}
}

func (c *Controller) handleEvent(event models.ChatEvent) {
	switch event.Type {
	case models.EventMessage:
		if event.Message != nil {
			c.feed.Append(*event.Message)
		}
	case models.EventPresence:
		c.mu.Lock()
		c.presence = event.Presence
		c.mu.Unlock()
	case models.EventStatusChanged:
		if event.Status != nil && event.Status.ParticipantID == c.identity.ParticipantID {
			c.mu.Lock()
			c.status = *event.Status
			c.mu.Unlock()
		}
	case models.EventHistoryCleared:
		c.feed.Clear()
	case models.EventMessageDeleted:
		c.feed.Remove(event.MessageID)
	}
}

// Send builds a message with a fresh client-assigned id and pushes it over
// the channel. Blocked locally when the channel is down or the participant
// is banned or timed out; the server re-checks regardless.
func (c *Controller) Send(body, imageURL string) (models.ChatMessage, error) {
	if body == "" && imageURL == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	c.mu.Lock()
	transport := c.transport
	blocked := c.status.Banned || c.status.TimedOutAt(c.now())
	c.mu.Unlock()

	if blocked {
		return models.ChatMessage{}, ErrSendBlocked
	}
	if transport == nil {
		return models.ChatMessage{}, ErrNotConnected
	}

	kind := models.KindText
	if imageURL != "" && body == "" {
		kind = models.KindImage
	}
	msg := models.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   c.identity.ParticipantID,
		SenderName: c.identity.DisplayName,
		SenderRole: c.identity.Role,
		Body:       body,
		ImageURL:   imageURL,
		Kind:       kind,
		CreatedAt:  c.now().UnixMilli(),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if err := transport.WriteFrame(models.ClientFrame{Type: models.FrameSend, Message: raw}); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Presence returns the last presence snapshot pushed by the server.
func (c *Controller) Presence() []models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Identity(nil), c.presence...)
}

// ViewBlocked reports whether the whole message view should be locked out.
// Only a ban blocks the view.
func (c *Controller) ViewBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Banned
}

// InputBlocked reports whether the send affordance should be disabled. Both
// a ban and an active timeout block input.
func (c *Controller) InputBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Banned || c.status.TimedOutAt(c.now())
}
