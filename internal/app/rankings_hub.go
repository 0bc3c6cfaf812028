package app

import (
	"sync"

	"contest-service/internal/domain"
)

// rankingsHub fans rankings snapshots out to per-contest subscribers.
type rankingsHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Rankings]struct{}
}

func newRankingsHub() *rankingsHub {
	return &rankingsHub{subs: make(map[string]map[chan domain.Rankings]struct{})}
}

func (h *rankingsHub) subscribe(key string) (chan domain.Rankings, func()) {
	ch := make(chan domain.Rankings, 8)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan domain.Rankings]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[key][ch]; ok {
			delete(h.subs[key], ch)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			close(ch)
		}
	}
	return ch, cancel
}

func (h *rankingsHub) broadcast(key string, snapshot domain.Rankings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		select {
		case ch <- snapshot:
		default:
			// Drop the oldest update so a slow consumer never blocks the
			// command path; only the latest snapshot matters.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
