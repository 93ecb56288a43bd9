package client

import (
	"sort"
	"sync"

	"community-chat-service/internal/models"
)

// DefaultPushCap bounds how many entries the realtime push path retains.
const DefaultPushCap = 100

// Feed is the unified message list shown to the UI. It is ordered by
// (timestamp, seq) and deduplicated by id, so merging the push path and the
// poll path is idempotent no matter how the two overlap.
type Feed struct {
	mu   sync.Mutex
	msgs []models.ChatMessage
	ids  map[string]struct{}
	cap  int
}

// NewFeed creates an empty feed with the given push-path cap.
func NewFeed(pushCap int) *Feed {
	if pushCap <= 0 {
		pushCap = DefaultPushCap
	}
	return &Feed{ids: make(map[string]struct{}), cap: pushCap}
}

// Append adds one pushed message. A message whose id is already present is
// discarded and the call reports false. Oldest entries beyond the push cap
// are trimmed.
func (f *Feed) Append(msg models.ChatMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ids[msg.ID]; ok {
		return false
	}
	f.ids[msg.ID] = struct{}{}
	f.msgs = append(f.msgs, msg)
	f.sortLocked()
	if len(f.msgs) > f.cap {
		trimmed := f.msgs[:len(f.msgs)-f.cap]
		for _, old := range trimmed {
			delete(f.ids, old.ID)
		}
		f.msgs = append([]models.ChatMessage(nil), f.msgs[len(f.msgs)-f.cap:]...)
	}
	return true
}

// Merge unions incoming messages into the feed keyed by id and re-sorts.
// Existing entries win; duplicates are no-ops.
func (f *Feed) Merge(incoming []models.ChatMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, msg := range incoming {
		if _, ok := f.ids[msg.ID]; ok {
			continue
		}
		f.ids[msg.ID] = struct{}{}
		f.msgs = append(f.msgs, msg)
	}
	f.sortLocked()
}

// Replace swaps the feed wholesale for the authoritative server window.
func (f *Feed) Replace(window []models.ChatMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.msgs = append([]models.ChatMessage(nil), window...)
	f.ids = make(map[string]struct{}, len(window))
	for _, msg := range window {
		f.ids[msg.ID] = struct{}{}
	}
	f.sortLocked()
}

// Remove drops a single message by id.
func (f *Feed) Remove(messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ids[messageID]; !ok {
		return
	}
	delete(f.ids, messageID)
	for i, msg := range f.msgs {
		if msg.ID == messageID {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			break
		}
	}
}

// Clear empties the feed.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = nil
	f.ids = make(map[string]struct{})
}

// Snapshot returns a copy of the current feed, oldest first.
func (f *Feed) Snapshot() []models.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChatMessage(nil), f.msgs...)
}

// Len reports the number of entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

// LastID returns the id of the newest entry, or "" when empty.
func (f *Feed) LastID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return ""
	}
	return f.msgs[len(f.msgs)-1].ID
}

func (f *Feed) sortLocked() {
	sort.SliceStable(f.msgs, func(i, j int) bool {
		return f.msgs[i].Before(f.msgs[j])
	})
}
