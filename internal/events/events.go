package events

import (
	"context"
	"sync"
)

type Kind string

const (
	SearchStarted   Kind = "search_started"
	SearchApplied   Kind = "search_applied"
	SearchFailed    Kind = "search_failed"
	SearchDiscarded Kind = "search_discarded"
	Selected        Kind = "selected"
	ViewportMoved   Kind = "viewport_moved"
	// Current is not a change: it reports the state as a new observer
	// finds it.
	Current Kind = "current"
)

// PageChanged tells observers that the page state moved to Version.
// Observers re-read the state; the event only carries a summary.
type PageChanged struct {
	Kind       Kind   `json:"kind"`
	Version    uint64 `json:"version"`
	Seq        uint64 `json:"seq,omitempty"`
	Loading    bool   `json:"loading"`
	Total      int    `json:"total"`
	SelectedID string `json:"selected_id,omitempty"`
}

type Publisher interface {
	PublishPageChanged(ctx context.Context, evt PageChanged)
	SubscribePageChanged(buffer int) (<-chan PageChanged, func())
}

// Broker fans each event out to every subscriber. A subscriber whose buffer
// is full misses the event rather than blocking the publisher.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan PageChanged
	nextID uint64
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]chan PageChanged)}
}

func (b *Broker) PublishPageChanged(_ context.Context, evt PageChanged) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// SubscribePageChanged registers a subscriber. The returned cancel func
// removes it and closes the channel; calling it twice is harmless.
func (b *Broker) SubscribePageChanged(buffer int) (<-chan PageChanged, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan PageChanged, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
