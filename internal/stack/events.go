package stack

import (
	"context"
	"sync"

	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Event types a Stack's dispatcher publishes. Reporting is best-effort:
// a handler's error is sent to the process-wide turtleerr handler rather
// than aborting the tile operation that triggered it.
const (
	EventTileLoaded  = "tile_loaded"
	EventTileEvicted = "tile_evicted"
)

// Event describes a tile lifecycle notification.
type Event struct {
	Type string
	Cell string
}

// Handler reacts to a Stack lifecycle event.
type Handler func(ctx context.Context, event Event) error

// dispatcher is a minimal pub/sub broadcaster for tile lifecycle events,
// adapted to report failures through the library's process-wide error
// handler instead of returning them synchronously.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the named event type.
func (d *dispatcher) Subscribe(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// HasHandlers reports whether any handler is registered for eventType.
func (d *dispatcher) HasHandlers(eventType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[eventType]) > 0
}

// publish invokes every handler registered for event.Type synchronously,
// in registration order, since tile events must be observed in the
// order tiles actually load/evict. turtleerr.Wrap reports the failure to
// the process-wide handler itself; publish does not call Report again.
func (d *dispatcher) publish(event Event) {
	d.mu.RLock()
	handlers := d.handlers[event.Type]
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h(context.Background(), event); err != nil {
			turtleerr.Wrap(turtleerr.LibraryError, "stack.dispatcher.publish", err, "handler for %s", event.Type)
		}
	}
}
