package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// bucket holds the items of one collection in insertion order.
type bucket struct {
	order []string
	items map[string]model.Item
}

func newBucket() *bucket {
	return &bucket{
		items: make(map[string]model.Item),
	}
}

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*bucket
	now         func() time.Time
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*bucket),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns all items of a collection in insertion order.
func (s *MemoryStore) List(ctx context.Context, collection string) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.collections[collection]
	if !exists {
		return []model.Item{}, nil
	}

	items := make([]model.Item, 0, len(b.order))
	for _, id := range b.order {
		items = append(items, b.items[id].Clone())
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.collections[collection]
	if !exists {
		return nil, ErrNotFound
	}

	item, exists := b.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	return item.Clone(), nil
}

// Create adds a new item to the collection and returns the created item with generated ID.
func (s *MemoryStore) Create(ctx context.Context, collection string, item model.Item) (model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.collections[collection]
	if !exists {
		b = newBucket()
		s.collections[collection] = b
	}

	newItem := item.Clone()
	newItem.Stamp(uuid.New().String(), s.now())

	b.items[newItem.ID()] = newItem
	b.order = append(b.order, newItem.ID())

	return newItem.Clone(), nil
}

// Update merges item into an existing item of the collection.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, item model.Item) (model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	if item == nil {
		return nil, fmt.Errorf("update item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.collections[collection]
	if !exists {
		return nil, ErrNotFound
	}

	existing, exists := b.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	updated := existing.Merge(item, s.now())
	b.items[id] = updated

	return updated.Clone(), nil
}

// Delete removes an item from the collection by its ID.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if err := checkCollection(collection); err != nil {
		return err
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.collections[collection]
	if !exists {
		return ErrNotFound
	}

	if _, exists := b.items[id]; !exists {
		return ErrNotFound
	}

	delete(b.items, id)
	b.order = slices.DeleteFunc(b.order, func(v string) bool { return v == id })

	return nil
}

var _ Store = (*MemoryStore)(nil)
