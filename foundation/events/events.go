// Package events fans ledger narration out to registered reporters.
// The ledger core only knows how to call an event handler function;
// this hub lets any number of goroutines subscribe to what that
// handler produces without the core knowing they exist.
package events

import (
	"fmt"
	"sync"
)

// Events maintains a mapping of unique id and channels so reporter
// goroutines can register and receive ledger narration.
type Events struct {
	m  map[string]chan string
	mu sync.RWMutex
}

// New constructs an events hub for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// A message is dropped if a reporter is not ready to receive.
	// The buffer gives a console reporter that is busy rendering
	// enough slack to not lose narration.
	const messageBuffer = 100

	evt.m[id] = make(chan string, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send takes the ledger's event handler signature, so a hub can be
// wired directly into a ledger configuration as the narration hook.
// The formatted message is signaled to every registered channel
// without blocking on any receiver.
func (evt *Events) Send(v string, args ...any) {
	s := fmt.Sprintf(v, args...)

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}
