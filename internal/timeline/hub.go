// Package timeline carries change signals from writers (fan-out, engagement,
// rebuild) to per-user subscribers. The hub deliberately transports no data:
// a subscriber re-reads its full timeline snapshot on every signal, so
// out-of-order partial updates cannot corrupt a consumer's view.
package timeline

import "sync"

// Hub is an in-process signal bus keyed by user phone.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]func()
	next uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func())}
}

// Subscribe registers fn to run whenever phone's timeline changes. The
// returned function unsubscribes; callers must invoke it on session end to
// stop background delivery.
func (h *Hub) Subscribe(phone string, fn func()) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[phone] == nil {
		h.subs[phone] = make(map[uint64]func())
	}
	id := h.next
	h.next++
	h.subs[phone][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[phone], id)
		if len(h.subs[phone]) == 0 {
			delete(h.subs, phone)
		}
	}
}

// Notify signals every subscriber of phone. Callbacks run on the caller's
// goroutine; subscribers that do slow work should hand off themselves.
func (h *Hub) Notify(phone string) {
	h.mu.RLock()
	fns := make([]func(), 0, len(h.subs[phone]))
	for _, fn := range h.subs[phone] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// NotifyMany signals subscribers of each listed phone once.
func (h *Hub) NotifyMany(phones []string) {
	for _, phone := range phones {
		h.Notify(phone)
	}
}

// SubscriberCount reports the number of live subscriptions for phone.
func (h *Hub) SubscriberCount(phone string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[phone])
}
