package client

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrReadFailure marks a failed list. It never escapes List; it is only
	// carried by the error notification.
	ErrReadFailure = errors.New("collection read failed")
	// ErrWriteFailure marks a failed create, update or delete.
	ErrWriteFailure = errors.New("collection write failed")
	// ErrInvalidItemID rejects ids that cannot name a single path segment.
	ErrInvalidItemID = errors.New(`item id must not be empty, "." or ".."`)
)

// Operation names a collection client operation.
type Operation string

// Collection operations.
const (
	OperationList   Operation = "list"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

func (o Operation) isWrite() bool {
	return o != OperationList
}

// OpError is the failure of one operation on a collection. Transport and
// non-2xx failures are not told apart.
type OpError struct {
	Op         Operation
	Collection string
	ID         string
	Err        error
}

// validateItemID rejects ids a server would resolve to another resource.
func validateItemID(id string) error {
	switch id {
	case "", ".", "..":
		return errors.WithStack(ErrInvalidItemID)
	default:
		return nil
	}
}

func newOpError(op Operation, collection, id string, err error) *OpError {
	return &OpError{
		Op:         op,
		Collection: collection,
		ID:         id,
		Err:        err,
	}
}

// Error formats as "<op> <collection>[/<id>]: <kind>: <cause>".
func (e *OpError) Error() string {
	target := e.Collection
	if e.ID != "" {
		target += "/" + e.ID
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, target, e.kind(), e.Err)
}

func (e *OpError) kind() error {
	if e.Op.isWrite() {
		return ErrWriteFailure
	}
	return ErrReadFailure
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *OpError) Unwrap() []error {
	return []error{e.kind(), e.Err}
}
