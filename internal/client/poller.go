package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"community-chat-service/internal/models"
)

// HistoryFetcher is the REST boundary the poller reconciles against.
type HistoryFetcher interface {
	RecentHistory(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

// Poller re-fetches the authoritative recent-history window on a fixed
// interval while the realtime channel is down. It bounds staleness during
// outages; it does not try to preserve per-message realtime ordering.
type Poller struct {
	fetcher  HistoryFetcher
	feed     *Feed
	interval time.Duration
	limit    int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller constructs a stopped poller.
func NewPoller(fetcher HistoryFetcher, feed *Feed, interval time.Duration, limit int) *Poller {
	return &Poller{fetcher: fetcher, feed: feed, interval: interval, limit: limit}
}

// Start begins polling. Calling Start on a running poller is a no-op, so the
// controller can never stack two tickers.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.loop(pollCtx, done)
}

// Stop halts polling and waits for the loop to exit, so no tick can touch
// the feed after Stop returns. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a poll loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick fetches the server window and reconciles. The window replaces the
// local feed only when the lengths or the newest ids disagree; an identical
// window is a no-op.
func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	window, err := p.fetcher.RecentHistory(ctx, p.limit)
	if err != nil {
		log.Debug().Err(err).Msg("history poll failed")
		return
	}
	// A fetch already in flight when Stop fired must not clobber messages
	// pushed over the freshly reconnected channel.
	if ctx.Err() != nil {
		return
	}

	lastID := ""
	if len(window) > 0 {
		lastID = window[len(window)-1].ID
	}
	if len(window) == p.feed.Len() && lastID == p.feed.LastID() {
		return
	}
	p.feed.Replace(window)
}
