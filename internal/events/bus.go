// Package events provides the in-process change bus that decouples the
// entity stores from the dashboard aggregator: stores publish entity
// changes, subscribers (the dashboard memo) invalidate on them.
package events

import "sync"

// Entity names a collection that can change.
type Entity string

const (
	EntityTransactions Entity = "transactions"
	EntityCategories   Entity = "categories"
	EntityProfile      Entity = "profile"
)

// Action names what happened to the entity.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionDeleted   Action = "deleted"
	ActionReordered Action = "reordered"
	ActionReloaded  Action = "reloaded"
)

// Change is one entity-changed notification.
type Change struct {
	Entity Entity
	Action Action
	ID     string
}

// Bus is a synchronous publish/subscribe bus. Delivery happens on the
// publisher's goroutine, in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Change)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for every future change. There is no
// unsubscribe: subscribers share the workspace lifetime.
func (b *Bus) Subscribe(fn func(Change)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers the change to all subscribers.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}
