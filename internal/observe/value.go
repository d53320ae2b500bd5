// Package observe provides a hot, latest-value-only observable container.
//
// A Value holds one value. Set replaces it and notifies every current
// subscriber. Each subscriber has a one-slot mailbox: a slow subscriber
// never blocks Set and only ever sees the newest value it has not read yet.
// A new subscriber receives the current value immediately.
package observe

import "sync"

// Value is an observable holder for a T. The zero value is not usable;
// call NewValue.
type Value[T any] struct {
	mu     sync.Mutex
	val    T
	subs   map[int]chan T
	nextID int
	closed bool
}

// NewValue creates a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		val:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set replaces the value and notifies subscribers. Set after Close still
// updates the value but notifies nobody.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = x
	v.publishLocked(x)
}

// Update applies fn to the current value atomically, stores the result,
// notifies subscribers and returns the new value.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = fn(v.val)
	v.publishLocked(v.val)
	return v.val
}

// Subscribe returns a channel that yields the current value and then every
// later value (coalesced to the newest). Call the returned func to stop;
// it closes the channel and is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan T, 1)
	if v.closed {
		close(ch)
		return ch, func() {}
	}

	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	ch <- v.val

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if c, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(c)
		}
	}
}

// Close closes every subscriber channel. Later subscribers get a closed
// channel.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}

// publishLocked assumes v.mu is held. Only publishers send, and they hold
// the lock, so after draining the slot the second send cannot block.
func (v *Value[T]) publishLocked(x T) {
	for _, ch := range v.subs {
		select {
		case ch <- x:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- x:
			default:
			}
		}
	}
}
