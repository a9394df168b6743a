package player

import (
	"sync"

	"EchoFM/model"
)

// Hub fans player-state changes out to connected clients (one user may
// have several tabs open; all of them should follow the same queue).
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[chan model.PlayerState]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[chan model.PlayerState]struct{})}
}

// Subscribe registers a listener for a user's player-state changes.
// The returned channel is buffered; slow consumers drop updates instead
// of blocking the publisher.
func (h *Hub) Subscribe(userID int64) chan model.PlayerState {
	ch := make(chan model.PlayerState, 8)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan model.PlayerState]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(userID int64, ch chan model.PlayerState) {
	h.mu.Lock()
	if subs, ok := h.subs[userID]; ok {
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subs, userID)
		}
	}
	h.mu.Unlock()
}

// Subscribers returns the number of listeners registered for a user.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Publish delivers a state snapshot to all of the user's listeners.
func (h *Hub) Publish(userID int64, state model.PlayerState) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- state:
		default:
			// 消费太慢就丢弃这次更新，客户端下次更新会追上
		}
	}
}
