// Package realtime implements the push side of the application's live
// views. A subscription is a filtered query (a fetch closure) whose full
// result set is re-pushed to the subscriber whenever any order changes; the
// subscriber replaces its entire in-memory view on each push. There is no
// incremental diffing contract.
package realtime

import (
	"sync"
)

// Fetch runs the subscription's filtered query and returns the full,
// refreshed result set.
type Fetch func() (interface{}, error)

// Subscription is one live view. Results arrive on C; Cancel releases the
// listener. A subscription that is never cancelled leaks for the life of
// the process, so consumers must defer Cancel.
type Subscription struct {
	C chan interface{}

	id     int
	hub    *Hub
	fetch  Fetch
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// Cancel releases the subscription. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		close(s.closed)
	})
}

// Hub fans out change notifications to all live subscriptions. Within one
// subscription, result sets are delivered in notification order; across
// subscriptions no ordering is guaranteed.
type Hub struct {
	mu   sync.Mutex
	seq  int
	subs map[int]*Subscription
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]*Subscription),
	}
}

// Subscribe registers a live view and pushes its initial result set. Each
// subsequent Notify causes the fetch to be re-run and the full result set
// to be pushed again. Notifications arriving while a push is in flight are
// coalesced into a single refresh.
func (h *Hub) Subscribe(fetch Fetch) *Subscription {
	h.mu.Lock()
	h.seq++
	sub := &Subscription{
		C:      make(chan interface{}, 1),
		id:     h.seq,
		hub:    h,
		fetch:  fetch,
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	// Initial push, then refresh on every wake-up.
	sub.wake <- struct{}{}
	go sub.run()
	return sub
}

// Notify signals every live subscription that the underlying data changed.
// It never blocks on slow subscribers.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.wake <- struct{}{}:
		default: // a refresh is already queued
		}
	}
}

// Len reports the number of live subscriptions. Used to verify that
// consumers release their listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (s *Subscription) run() {
	defer close(s.C)
	for {
		select {
		case <-s.closed:
			return
		case <-s.wake:
			result, err := s.fetch()
			if err != nil {
				// The view stays on its previous result set; the next
				// notification retries the fetch.
				continue
			}
			select {
			case s.C <- result:
			case <-s.closed:
				return
			}
		}
	}
}
