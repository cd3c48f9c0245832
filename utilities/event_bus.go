package utilities

import "sync"

// Event topics published by the core. Presentation subscribes to these;
// the core itself never depends on anyone listening.
const (
	EventStatsChanged        = "stats_changed"
	EventFlashcardsChanged   = "flashcards_changed"
	EventAchievementUnlocked = "achievement_unlocked"
	EventSyncRequested       = "sync_requested"
)

type EventHandler func(interface{})

type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(event string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[event] = append(eb.handlers[event], handler)
}

func (eb *EventBus) Publish(event string, data interface{}) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if handlers, found := eb.handlers[event]; found {
		for _, handler := range handlers {
			go handler(data) // Run handlers asynchronously
		}
	}
}

// PublishSync runs handlers on the caller's goroutine, in subscription order.
// Tests use this to observe events without sleeping.
func (eb *EventBus) PublishSync(event string, data interface{}) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, handler := range eb.handlers[event] {
		handler(data)
	}
}

// Global instance
var GlobalEventBus = NewEventBus()
