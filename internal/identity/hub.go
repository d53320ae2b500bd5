// Package identity provides identity providers (Firebase Identity Toolkit
// and an in-memory one) and the Google credential source used for
// federated sign-in.
package identity

import (
	"sync"

	"github.com/hammamikhairi/culina/internal/domain"
)

// sessionHub holds the current user and fans changes out to listeners.
type sessionHub struct {
	mu        sync.Mutex
	user      *domain.User
	listeners map[int]func(*domain.User)
	nextID    int
}

func newSessionHub(initial *domain.User) *sessionHub {
	return &sessionHub{user: initial, listeners: make(map[int]func(*domain.User))}
}

func (h *sessionHub) current() *domain.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user
}

// set stores user and notifies listeners outside the lock.
func (h *sessionHub) set(user *domain.User) {
	h.mu.Lock()
	h.user = user
	fns := make([]func(*domain.User), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

func (h *sessionHub) subscribe(fn func(*domain.User)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	user := h.user
	h.mu.Unlock()

	fn(user)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}
