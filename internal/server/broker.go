package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/brainlab/internal/session"
)

// message is one JSON-encoded session event ready for a stream.
type message struct {
	Type string
	Data []byte
}

// Broker is an in-process pub/sub for session events, keyed by session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan message]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan message]struct{}),
	}
}

// Subscribe returns a channel that receives events for the given session.
func (b *Broker) Subscribe(sessionID string) chan message {
	ch := make(chan message, 64)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan message]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan message) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given session.
func (b *Broker) Publish(sessionID string, ev session.Event) {
	data, _ := json.Marshal(ev)
	msg := message{Type: ev.Type, Data: data}
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Close ends every stream of a session by closing its channels.
func (b *Broker) Close(sessionID string) {
	b.mu.Lock()
	for ch := range b.subs[sessionID] {
		close(ch)
	}
	delete(b.subs, sessionID)
	b.mu.Unlock()
}

func (b *Broker) subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
