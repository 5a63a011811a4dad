package service

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"tally/internal/modules/tracking/dto"
	trackingin "tally/internal/modules/tracking/port/in"
	"tally/internal/platform/logging"
)

type subscription struct {
	id       uint64
	observer trackingin.Observer
	bus      *Bus
}

// Unregister removes the subscription. Calling it again is a no-op.
func (s *subscription) Unregister() {
	s.bus.remove(s.id)
}

// Bus fans session events out to registered observers synchronously, in
// registration order, on the goroutine that publishes.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	order  []uint64
	nextID uint64
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{subs: make(map[uint64]*subscription), logger: logging.OrDiscard(logger)}
}

func (b *Bus) Register(observer trackingin.Observer) trackingin.Registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &subscription{id: b.nextID, observer: observer, bus: b}
	b.subs[sub.id] = sub
	b.order = append(b.order, sub.id)
	b.logger.Debug("observer registered", "kind", observer.Kind(), "scope", observer.Scope())
	return sub
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	b.logger.Debug("observer unregistered", "kind", sub.observer.Kind(), "scope", sub.observer.Scope())
}

// Publish delivers event to every observer whose scope is global or equals
// the event's group key. Observers removed during delivery, including by
// themselves, receive nothing further.
func (b *Bus) Publish(event dto.Event) {
	b.mu.Lock()
	ids := make([]uint64, len(b.order))
	copy(ids, b.order)
	b.mu.Unlock()

	for _, id := range ids {
		sub, ok := b.lookup(id)
		if !ok {
			continue
		}
		scope := sub.observer.Scope()
		if scope != "" && scope != event.GroupKey {
			continue
		}
		b.deliver(sub.observer, event)
	}
}

func (b *Bus) lookup(id uint64) (*subscription, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	return sub, ok
}

// deliver recovers observer panics so one broken surface cannot stop the
// fan-out to the rest.
func (b *Bus) deliver(observer trackingin.Observer, event dto.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panicked",
				"kind", observer.Kind(), "event", event.Kind, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	observer.Update(event)
}

func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// CountKind reports how many observers of kind are registered.
func (b *Bus) CountKind(kind dto.ObserverKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, sub := range b.subs {
		if sub.observer.Kind() == kind {
			n++
		}
	}
	return n
}
