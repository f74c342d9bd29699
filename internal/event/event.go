// Package event is a synchronous in-process emitter for snippet lifecycle
// notifications.
package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/snippets-guru/internal/model"
)

// Kind names a lifecycle event.
type Kind string

const (
	SnippetCreated Kind = "snippet.created"
	SnippetUpdated Kind = "snippet.updated"
)

// Event is delivered to listeners after a successful write. Snippet is a
// copy; listeners may not mutate the stored record through it.
type Event struct {
	Kind    Kind
	Snippet model.Snippet
}

// Listener handles one event. A returned error is logged and does not stop
// the remaining listeners.
type Listener func(ctx context.Context, e Event) error

// Bus dispatches events to listeners in subscription order.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Kind][]Listener
	logger    *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		listeners: make(map[Kind][]Listener),
		logger:    logger,
	}
}

// Subscribe registers fn for kind.
func (b *Bus) Subscribe(kind Kind, fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[kind] = append(b.listeners[kind], fn)
}

// Emit runs every listener of e.Kind on the calling goroutine.
func (b *Bus) Emit(ctx context.Context, e Event) {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[e.Kind]...)
	b.mu.RUnlock()

	for _, fn := range listeners {
		if err := fn(ctx, e); err != nil {
			b.logger.Error("event listener failed",
				slog.String("event", string(e.Kind)),
				slog.String("snippet_id", e.Snippet.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
