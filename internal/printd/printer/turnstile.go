package printer

import (
	"sync"

	"github.com/google/uuid"
)

// newTurnstile creates a turnstile instance.
func newTurnstile() *turnstile {
	return &turnstile{
		mutex:     new(sync.RWMutex),
		listeners: make(map[uuid.UUID]chan struct{}),
	}
}

// turnstile is the rendezvous by which workers learn that a printer's queue
// changed. It replaces a condition variable: workers register a listener,
// re-check the queue head, and block on the listener channel; every queue
// change broadcasts to all listeners.
type turnstile struct {
	mutex     *sync.RWMutex
	listeners map[uuid.UUID]chan struct{}
}

// listen registers a wake channel. The channel must be registered before the
// caller inspects the queue, so a broadcast between inspection and wait is
// never lost. The returned id releases the registration via forget.
func (t *turnstile) listen() (uuid.UUID, <-chan struct{}) {
	t.mutex.Lock()
retry:
	id := uuid.New()
	if _, ok := t.listeners[id]; ok {
		goto retry
	}

	wake := make(chan struct{}, 1)
	t.listeners[id] = wake
	t.mutex.Unlock()

	return id, wake
}

// forget removes the registration for id.
func (t *turnstile) forget(id uuid.UUID) {
	t.mutex.Lock()
	delete(t.listeners, id)
	t.mutex.Unlock()
}

// Broadcast publishes to all listeners that the queue changed. Sends never
// block; a listener that has a wakeup pending coalesces further ones.
func (t *turnstile) Broadcast() {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	for _, listener := range t.listeners {
		select {
		case listener <- struct{}{}:
		default:
		}
	}
}
