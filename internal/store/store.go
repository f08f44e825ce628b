// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// Store errors.
var (
	ErrNotFound          = errors.New("item not found")
	ErrInvalidID         = errors.New("invalid item ID")
	ErrNilItem           = errors.New("item cannot be nil")
	ErrInvalidCollection = errors.New("invalid collection")
)

// Store defines the interface for collection-scoped item storage operations.
// Items of a collection are listed in insertion order.
type Store interface {
	// List returns all items of a collection. Unknown collections are empty.
	List(ctx context.Context, collection string) ([]model.Item, error)

	// Get retrieves an item of a collection by its ID.
	Get(ctx context.Context, collection, id string) (model.Item, error)

	// Create adds a new item to a collection and returns it with its generated ID.
	Create(ctx context.Context, collection string, item model.Item) (model.Item, error)

	// Update merges the given fields into an existing item.
	Update(ctx context.Context, collection, id string, item model.Item) (model.Item, error)

	// Delete removes an item from a collection by its ID.
	Delete(ctx context.Context, collection, id string) error
}

func checkCollection(collection string) error {
	if err := model.ValidateCollectionName(collection); err != nil {
		return errors.Join(ErrInvalidCollection, err)
	}
	return nil
}
