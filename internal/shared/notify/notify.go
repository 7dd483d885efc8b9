// Package notify is the subscribe/notify primitive shared by the simulated
// services and the panels. Listeners are called synchronously, in
// registration order, without the broadcaster lock held.
package notify

import "sync"

// Broadcaster fans values out to registered listeners
type Broadcaster[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	order     []uint64
	next      uint64
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is idempotent.
func (b *Broadcaster[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[uint64]func(T))
	}
	b.next++
	key := b.next
	b.listeners[key] = fn
	b.order = append(b.order, key)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(key) })
	}
}

func (b *Broadcaster[T]) remove(key uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.listeners, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish delivers v to every listener
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	fns := make([]func(T), 0, len(b.order))
	for _, k := range b.order {
		fns = append(fns, b.listeners[k])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of listeners
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
