package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/lewisfm/CKAN/kan"
)

// SubscriptionToken is the opaque handle returned by Publisher.Subscribe,
// used to Unsubscribe later.
type SubscriptionToken uuid.UUID

// Publisher is a small typed event bus for the "updated" event fired
// once per successful Pipeline.Update call. This is deliberately
// local to one store instance rather than a global event bus, per the
// design note against global mutable state.
type Publisher struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]func(repos []kan.Repository)
}

// NewPublisher returns an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{subscribers: make(map[uuid.UUID]func(repos []kan.Repository))}
}

// Subscribe registers fn to be called on every future Publish, and
// returns a token that can be passed to Unsubscribe.
func (p *Publisher) Subscribe(fn func(repos []kan.Repository)) SubscriptionToken {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.New()
	p.subscribers[id] = fn
	return SubscriptionToken(id)
}

// Unsubscribe removes a previously registered subscriber. Unsubscribing
// an unknown or already-removed token is a no-op.
func (p *Publisher) Unsubscribe(token SubscriptionToken) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscribers, uuid.UUID(token))
}

// Publish invokes every current subscriber with repos, the set of
// repositories that changed in the update that just completed.
func (p *Publisher) Publish(repos []kan.Repository) {
	p.mu.Lock()
	fns := make([]func(repos []kan.Repository), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(repos)
	}
}
