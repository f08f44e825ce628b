// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Validation errors for collections and items.
var (
	ErrEmptyCollection       = errors.New("collection name cannot be empty")
	ErrCollectionNameTooLong = errors.New("collection name cannot exceed 64 characters")
	ErrInvalidCollectionName = errors.New(
		"collection name may only contain lowercase letters, digits, '-' and '_'",
	)
	ErrMissingData         = errors.New("data cannot be empty")
	ErrCollectionMismatch  = errors.New("body collection does not match path collection")
	ErrReservedFieldChange = errors.New("id cannot be changed")
)

// Validation constants.
const (
	MaxCollectionNameLength = 64
)

// Reserved item fields managed by the backend.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Item is one schema-less record of a collection.
type Item map[string]any

// ID returns the item identifier, or an empty string if the item has none.
func (i Item) ID() string {
	switch v := i[FieldID].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy of the item.
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	return maps.Clone(i)
}

// Stamp sets the backend-managed fields of a freshly created item.
func (i Item) Stamp(id string, now time.Time) {
	i[FieldID] = id
	i[FieldCreatedAt] = now.Format(time.RFC3339Nano)
	i[FieldUpdatedAt] = now.Format(time.RFC3339Nano)
}

// Merge applies the fields of patch over a copy of i. The id and creation
// timestamp of i are preserved.
func (i Item) Merge(patch Item, now time.Time) Item {
	merged := i.Clone()
	if merged == nil {
		merged = Item{}
	}

	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		merged[k] = v
	}

	merged[FieldUpdatedAt] = now.Format(time.RFC3339Nano)

	return merged
}

// ValidateCollectionName checks that name is a usable collection identifier.
func ValidateCollectionName(name string) error {
	if name == "" {
		return ErrEmptyCollection
	}

	if len(name) > MaxCollectionNameLength {
		return ErrCollectionNameTooLong
	}

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ErrInvalidCollectionName
		}
	}

	return nil
}

// MutationRequest is the request body of create and update calls.
type MutationRequest struct {
	Collection string `json:"collection"`
	Data       Item   `json:"data"`
}

// Validate checks the request against the collection addressed by the URL.
func (r *MutationRequest) Validate(pathCollection string) error {
	if r.Collection != "" && r.Collection != pathCollection {
		return ErrCollectionMismatch
	}

	if len(r.Data) == 0 {
		return ErrMissingData
	}

	return nil
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
