package client

import (
	"context"
	"sync"
)

// Binding tracks the Collection a consumer is currently bound to. Binding a
// new name replaces the instance and runs its initial list; binding the same
// name again is a no-op.
type Binding struct {
	client *Client

	mu      sync.Mutex
	current *Collection
}

// NewBinding creates a Binding with no collection bound.
func NewBinding(client *Client) *Binding {
	return &Binding{client: client}
}

// Bind returns the Collection for name, creating a fresh one when name
// differs from the bound collection.
func (b *Binding) Bind(ctx context.Context, name string) *Collection {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil && b.current.Name() == name {
		return b.current
	}

	b.current = b.client.Collection(ctx, name)

	return b.current
}

// Current returns the bound Collection, or nil.
func (b *Binding) Current() *Collection {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current
}

// Release drops the bound Collection and its state.
func (b *Binding) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = nil
}
