package event

import (
	"strings"
	"sync"

	"github.com/carehours/backend/internal/domain/shared"
)

// HandlerRegistry maps event types to handlers. Besides exact types it
// accepts "context.*" patterns, e.g. "invoice.*", and the catch-all "*".
type HandlerRegistry struct {
	mu       sync.RWMutex
	exact    map[string][]shared.EventHandler
	prefixes map[string][]shared.EventHandler // "invoice." -> handlers
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		exact:    make(map[string][]shared.EventHandler),
		prefixes: make(map[string][]shared.EventHandler),
	}
}

// Register adds a handler. No patterns means every event.
func (r *HandlerRegistry) Register(handler shared.EventHandler, patterns ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(patterns) == 0 {
		r.wildcard = appendUnique(r.wildcard, handler)
		return
	}
	for _, p := range patterns {
		switch {
		case p == "*":
			r.wildcard = appendUnique(r.wildcard, handler)
		case strings.HasSuffix(p, ".*"):
			prefix := strings.TrimSuffix(p, "*")
			r.prefixes[prefix] = appendUnique(r.prefixes[prefix], handler)
		default:
			r.exact[p] = appendUnique(r.exact[p], handler)
		}
	}
}

// Unregister removes a handler everywhere
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = removeHandler(r.wildcard, handler)
	for k, hs := range r.exact {
		if r.exact[k] = removeHandler(hs, handler); len(r.exact[k]) == 0 {
			delete(r.exact, k)
		}
	}
	for k, hs := range r.prefixes {
		if r.prefixes[k] = removeHandler(hs, handler); len(r.prefixes[k]) == 0 {
			delete(r.prefixes, k)
		}
	}
}

// HandlersFor returns exact, then prefix, then catch-all handlers for an
// event type. A handler registered under several matching patterns appears once.
func (r *HandlerRegistry) HandlersFor(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []shared.EventHandler
	for _, h := range r.exact[eventType] {
		out = appendUnique(out, h)
	}
	for prefix, hs := range r.prefixes {
		if strings.HasPrefix(eventType, prefix) {
			for _, h := range hs {
				out = appendUnique(out, h)
			}
		}
	}
	for _, h := range r.wildcard {
		out = appendUnique(out, h)
	}
	return out
}

// Len returns the number of distinct registered handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]bool)
	for _, h := range r.wildcard {
		seen[h] = true
	}
	for _, hs := range r.exact {
		for _, h := range hs {
			seen[h] = true
		}
	}
	for _, hs := range r.prefixes {
		for _, h := range hs {
			seen[h] = true
		}
	}
	return len(seen)
}

func appendUnique(handlers []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	for _, existing := range handlers {
		if existing == h {
			return handlers
		}
	}
	return append(handlers, h)
}

func removeHandler(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	result := make([]shared.EventHandler, 0, len(handlers))
	for _, h := range handlers {
		if h != target {
			result = append(result, h)
		}
	}
	return result
}
