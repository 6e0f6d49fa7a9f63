package event

import (
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/pokebattle/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard matches every event type.
const wildcard = "*"

// subscription represents a registered event handler. A non-empty prefix
// turns it into a prefix match.
type subscription struct {
	id      string
	prefix  string
	handler Handler
}

// Bus is a synchronous pub-sub event bus.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // key -> subscriptions
	prefixed      []subscription
	nextID        atomic.Uint64
	logger        *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to logger;
// a nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		subscriptions: make(map[string][]subscription),
		logger:        logger.WithComponent("event"),
	}
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{id: b.generateID(), handler: handler}
	b.subscriptions[eventType] = append(b.subscriptions[eventType], sub)
	return sub.id
}

// SubscribeAll registers a handler for all event types.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// SubscribePrefix registers a handler for every event type starting with
// prefix, e.g. "battle." for all battle events.
func (b *Bus) SubscribePrefix(prefix string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{id: b.generateID(), prefix: prefix, handler: handler}
	b.prefixed = append(b.prefixed, sub)
	return sub.id
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[key] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	for i, sub := range b.prefixed {
		if sub.id == id {
			b.prefixed = append(b.prefixed[:i:i], b.prefixed[i+1:]...)
			return true
		}
	}
	return false
}

// Publish dispatches an event to all matching handlers: exact-type handlers
// first, then prefix handlers, then wildcard handlers. Within each group,
// handlers run in registration order. A panicking handler is logged and
// skipped.
func (b *Bus) Publish(e Event) {
	eventType := e.EventType()

	b.mu.RLock()
	targets := make([]subscription, 0, len(b.subscriptions[eventType])+len(b.prefixed)+len(b.subscriptions[wildcard]))
	targets = append(targets, b.subscriptions[eventType]...)
	for _, sub := range b.prefixed {
		if strings.HasPrefix(eventType, sub.prefix) {
			targets = append(targets, sub)
		}
	}
	targets = append(targets, b.subscriptions[wildcard]...)
	b.mu.RUnlock()

	for _, sub := range targets {
		b.safeCall(sub.handler, e)
	}
}

// safeCall invokes a handler and recovers from any panics.
func (b *Bus) safeCall(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", e.EventType(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(e)
}

// generateID creates a unique subscription ID. Callers hold b.mu.
func (b *Bus) generateID() string {
	return "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := len(b.prefixed)
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
