// Package watch is the subscribe/notify mechanism stores expose to the
// presentation layer. Delivery is synchronous and in subscription order;
// stores call Notify inside their commit section so listeners observe
// mutations in exactly the order they were committed.
package watch

import "sync"

// Hub fan-outs committed snapshots of type T to registered listeners.
// The zero value is ready to use.
type Hub[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns its cancel function. Cancel is
// idempotent. Listeners run on the mutating goroutine and must return
// quickly; they must not call back into the notifying store.
func (h *Hub[T]) Subscribe(fn func(T)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify delivers v to every listener, synchronously, in subscription order.
func (h *Hub[T]) Notify(v T) {
	h.mu.Lock()
	subs := make([]subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len reports the number of live subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
