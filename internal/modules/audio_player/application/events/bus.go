package events

import (
	"log/slog"
	"sync"
)

// DefaultBufferSize is the default buffer size for event channels.
const DefaultBufferSize = 100

// Bus is a channel-based event bus decoupling session mutations from the
// render bridge. Publishing is non-blocking: if a buffer is full the event
// is dropped with a warning (the next state change supersedes it anyway).
type Bus struct {
	stateChanged  chan StateChangedEvent
	sessionClosed chan SessionClosedEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &Bus{
		stateChanged:  make(chan StateChangedEvent, bufferSize),
		sessionClosed: make(chan SessionClosedEvent, bufferSize),
	}
}

// PublishStateChanged publishes a StateChangedEvent.
func (b *Bus) PublishStateChanged(event StateChangedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "StateChanged")
		return
	}

	select {
	case b.stateChanged <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "StateChanged",
			"guild", event.GuildID)
	}
}

// PublishSessionClosed publishes a SessionClosedEvent.
func (b *Bus) PublishSessionClosed(event SessionClosedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "SessionClosed")
		return
	}

	select {
	case b.sessionClosed <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "SessionClosed",
			"guild", event.GuildID)
	}
}

// StateChanged returns the channel for StateChangedEvent.
func (b *Bus) StateChanged() <-chan StateChangedEvent {
	return b.stateChanged
}

// SessionClosed returns the channel for SessionClosedEvent.
func (b *Bus) SessionClosed() <-chan SessionClosedEvent {
	return b.sessionClosed
}

// Close closes all event channels. After Close, publishing is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.stateChanged)
	close(b.sessionClosed)

	slog.Debug("event bus closed")
}
