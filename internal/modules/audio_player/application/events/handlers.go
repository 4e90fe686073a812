package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/groovebot/groovebot/internal/modules/audio_player/application/ports"
)

// NotificationHandler consumes state-change events and drives the render
// bridge. Render failures are logged, never propagated back to the session.
type NotificationHandler struct {
	bus  *Bus
	view ports.View

	wg   sync.WaitGroup
	done chan struct{}
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(bus *Bus, view ports.View) *NotificationHandler {
	return &NotificationHandler{
		bus:  bus,
		view: view,
		done: make(chan struct{}),
	}
}

// Start begins consuming events in a background goroutine.
func (h *NotificationHandler) Start(ctx context.Context) {
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.StateChanged():
				if !ok {
					return
				}
				if err := h.view.Render(ctx, event.Snapshot); err != nil {
					slog.Error("failed to render player view",
						"guild", event.GuildID, "error", err)
				}
			case event, ok := <-h.bus.SessionClosed():
				if !ok {
					return
				}
				if err := h.view.Remove(ctx, event.GuildID); err != nil {
					slog.Warn("failed to remove player view",
						"guild", event.GuildID, "error", err)
				}
			}
		}
	}()

	slog.Debug("notification handler started")
}

// Stop stops the handler and waits for the consumer goroutine to finish.
func (h *NotificationHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("notification handler stopped")
}
