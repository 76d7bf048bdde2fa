package localstore

import "sync"

// Hub fans out change signals per cache table. Every write to a table
// pings all of that table's subscribers; live queries then re-run and
// re-deliver their full snapshot. Signals are coalesced (buffered size 1),
// so a burst of writes produces at least one re-query, not one per write.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Notify signals every subscriber of the given table. Never blocks.
func (h *Hub) Notify(table string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers interest in a table and returns the subscriber id
// together with the signal channel. The caller must Unsubscribe when done.
func (h *Hub) Subscribe(table string) (int, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	if h.subs[table] == nil {
		h.subs[table] = make(map[int]chan struct{})
	}
	ch := make(chan struct{}, 1)
	h.subs[table][id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber. Safe to call twice.
func (h *Hub) Unsubscribe(table string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[table]; ok {
		delete(m, id)
		if len(m) == 0 {
			delete(h.subs, table)
		}
	}
}
