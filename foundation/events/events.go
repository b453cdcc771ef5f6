// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events held for a subscriber. Events are
// dropped for a subscriber that is not ready to receive, websocket sends can
// take a while.
const messageBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events. Only events carrying the configured
// prefix are delivered, with the prefix removed.
type Events struct {
	prefix string
	m      map[string]chan string
	mu     sync.RWMutex
}

// New constructs an events for registering and receiving events. An empty
// prefix delivers every event.
func New(prefix string) *Events {
	return &Events{
		prefix: prefix,
		m:      make(map[string]chan string),
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

// Len returns the number of subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a message to every registered channel when it carries the
// prefix. Send will not block waiting for a receiver on any given channel.
// It reports if the message matched the prefix.
func (evt *Events) Send(s string) bool {
	msg, found := strings.CutPrefix(s, evt.prefix)
	if !found {
		return false
	}
	msg = strings.TrimSpace(msg)

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- msg:
		default:
		}
	}

	return true
}
