package app

import (
	"sync"

	"quiz-competition-service/internal/domain"
)

// Feed fans completion updates out to per-competition subscribers. Slow
// subscribers never block a publish: when a buffer is full the stale update
// is dropped in favor of the newer one.
type Feed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.CompletionUpdate]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[string]map[chan domain.CompletionUpdate]struct{})}
}

// Subscribe registers a buffered channel for one competition's updates. The
// cancel function unregisters and closes it; calling cancel twice is safe.
func (f *Feed) Subscribe(competitionID string) (chan domain.CompletionUpdate, func()) {
	ch := make(chan domain.CompletionUpdate, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[competitionID]
	if !ok {
		subs = make(map[chan domain.CompletionUpdate]struct{})
		f.subscribers[competitionID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if subs, ok := f.subscribers[competitionID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.subscribers, competitionID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an update to every subscriber of its competition.
func (f *Feed) Publish(update domain.CompletionUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[update.CompetitionID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
