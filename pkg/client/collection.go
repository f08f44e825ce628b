package client

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is a snapshot of a Collection.
type State struct {
	Items []Item
	// Loading is true while at least one request of the collection is in flight.
	Loading bool
	// Error is ErrorMessageLoad after a failed list, empty otherwise.
	Error string
}

// Collection is the client for one named collection. Operations on the same
// Collection are not serialized: concurrent mutations race, and the last list
// response to arrive decides Items.
type Collection struct {
	client *Client
	name   string

	mu       sync.Mutex
	items    []Item
	inflight int
	errMsg   string
}

// Name returns the collection identifier the instance is bound to.
func (c *Collection) Name() string {
	return c.name
}

// State returns a copy of the current state.
func (c *Collection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Items:   cloneItems(c.items),
		Loading: c.inflight > 0,
		Error:   c.errMsg,
	}
}

// List fetches every item of the collection and replaces Items with the
// result. It never fails: on error Items is emptied, Error is set to
// ErrorMessageLoad, one error notification is emitted and an empty slice is
// returned.
func (c *Collection) List(ctx context.Context) []Item {
	c.begin(true)
	defer c.end()

	var res listResponse

	err := c.client.do(ctx, OperationList, c.name, http.MethodGet, c.client.endpoint(c.name, "list"), nil, &res)
	if err != nil {
		opErr := newOpError(OperationList, c.name, "", err)

		c.mu.Lock()
		c.items = []Item{}
		c.errMsg = ErrorMessageLoad
		c.mu.Unlock()

		c.client.logger.Warn("failed to list collection",
			zap.String("collection", c.name),
			zap.Error(err),
		)
		c.client.notify(ctx, LevelError, OperationList, c.name, opErr)

		return []Item{}
	}

	items := res.Data
	if items == nil {
		items = []Item{}
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	return cloneItems(items)
}

// Create sends data as a new item. On success it notifies, refreshes the
// list and returns the item as reported by the server.
func (c *Collection) Create(ctx context.Context, data Item) (Item, error) {
	var res itemResponse

	payload := mutationRequest{Collection: c.name, Data: data}
	if err := c.mutate(ctx, OperationCreate, "", http.MethodPost, c.client.endpoint(c.name, "create"), payload, &res); err != nil {
		return nil, err
	}

	return res.Data, nil
}

// Update sends data for the item id. Same contract as Create.
func (c *Collection) Update(ctx context.Context, id string, data Item) (Item, error) {
	var res itemResponse

	payload := mutationRequest{Collection: c.name, Data: data}
	if err := c.mutate(ctx, OperationUpdate, id, http.MethodPut, c.client.endpoint(c.name, id), payload, &res); err != nil {
		return nil, err
	}

	return res.Data, nil
}

// Delete removes the item id, then notifies and refreshes the list.
func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, OperationDelete, id, http.MethodDelete, c.client.endpoint(c.name, id), nil, nil)
}

// mutate runs one write request. A failure is notified and returned as an
// *OpError; a success is notified and followed by exactly one List. Update and
// delete ids are checked before anything is sent.
func (c *Collection) mutate(ctx context.Context, op Operation, id, method string, endpoint *url.URL, payload, result any) error {
	var err error
	if op != OperationCreate {
		err = validateItemID(id)
	}
	if err == nil {
		err = func() error {
			c.begin(false)
			defer c.end()

			return c.client.do(ctx, op, c.name, method, endpoint, payload, result)
		}()
	}
	if err != nil {
		opErr := newOpError(op, c.name, id, err)

		c.client.logger.Error("collection write failed",
			zap.String("operation", string(op)),
			zap.String("collection", c.name),
			zap.String("id", id),
			zap.Error(err),
		)
		c.client.notify(ctx, LevelError, op, c.name, opErr)

		return opErr
	}

	c.client.notify(ctx, LevelSuccess, op, c.name, nil)
	c.List(ctx)

	return nil
}

func (c *Collection) begin(clearError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight++
	if clearError {
		c.errMsg = ""
	}
}

func (c *Collection) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
}

// do issues a JSON request and records its metrics.
func (c *Client) do(ctx context.Context, op Operation, collection, method string, endpoint *url.URL, payload, result any) error {
	start := time.Now()
	err := c.jsonRequest(ctx, method, endpoint, payload, result)
	c.metrics.observe(collection, op, err, time.Since(start))
	return err
}

func (c *Client) notify(ctx context.Context, level Level, op Operation, collection string, err error) {
	c.notifier.Notify(ctx, newNotification(level, op, collection, err))
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
