package parley

import (
	"sync"

	"github.com/parleyhq/parley/pkg/domain"
)

// subscriberBuffer bounds how far a slow subscriber may lag before diffs are dropped for it.
const subscriberBuffer = 16

// broker fans session diffs out to subscribers, keyed by session id.
type broker struct {
	mu   sync.Mutex
	subs map[string]map[chan *domain.SessionDiff]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[string]map[chan *domain.SessionDiff]struct{})}
}

func (b *broker) subscribe(sessionID string) (<-chan *domain.SessionDiff, func()) {
	ch := make(chan *domain.SessionDiff, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan *domain.SessionDiff]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[sessionID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(b.subs, sessionID)
				}
			}
		})
	}
	return ch, cancel
}

// publish never blocks; a full subscriber misses the diff.
func (b *broker) publish(sessionID string, diff *domain.SessionDiff) {
	if diff == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- diff:
		default:
		}
	}
}

// close ends every subscription of a session.
func (b *broker) close(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		close(ch)
	}
	delete(b.subs, sessionID)
}
