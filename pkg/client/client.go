// Package client provides the collection client: uniform list, create,
// update and delete access to named remote collections, with loading and
// error state and a full list refresh after every successful mutation.
package client

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// Item is one schema-less record of a collection.
type Item = model.Item

// Client holds the transport shared by every Collection it creates.
type Client struct {
	baseURL    *url.URL
	namespace  string
	httpClient *http.Client
	logger     *zap.Logger
	notifier   Notifier
	metrics    *metrics
}

// New creates a Client. Nil logger, notifier or HTTP client options fall
// back to their defaults.
func New(funcs ...OptionFunc) *Client {
	opts := NewOptions(funcs...)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    opts.BaseURL,
		namespace:  opts.Namespace,
		httpClient: httpClient,
		logger:     logger,
		notifier:   notifier,
		metrics:    newMetrics(opts.Registerer),
	}
}

// Collection binds a new Collection to name and performs its initial list
// before returning it.
func (c *Client) Collection(ctx context.Context, name string) *Collection {
	collection := &Collection{
		client: c,
		name:   name,
		items:  []Item{},
	}

	collection.List(ctx)

	return collection
}

// Namespace returns the API namespace requests are issued under.
func (c *Client) Namespace() string {
	return c.namespace
}

// BaseURL returns a copy of the backend base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}
