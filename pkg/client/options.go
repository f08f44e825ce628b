package client

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultNamespace is the API namespace used when none is configured.
const DefaultNamespace = "universal"

// DefaultBaseURL is the co-hosted backend targeted by an empty base URL.
var DefaultBaseURL = url.URL{
	Scheme: "http",
	Host:   "localhost:8080",
}

// Options holds the client settings collected from OptionFuncs.
type Options struct {
	BaseURL    *url.URL
	Namespace  string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Notifier   Notifier
	Registerer prometheus.Registerer
}

// OptionFunc customizes Options.
type OptionFunc func(opts *Options)

// WithBaseURL sets the backend base URL. A nil URL keeps DefaultBaseURL.
func WithBaseURL(baseURL *url.URL) OptionFunc {
	return func(opts *Options) {
		if baseURL != nil {
			opts.BaseURL = baseURL
		}
	}
}

// WithNamespace sets the API namespace. An empty namespace keeps DefaultNamespace.
func WithNamespace(namespace string) OptionFunc {
	return func(opts *Options) {
		if namespace != "" {
			opts.Namespace = namespace
		}
	}
}

// WithHTTPClient replaces the HTTP client. The default client has no timeout,
// so a hung request keeps the collection loading until ctx is done.
func WithHTTPClient(httpClient *http.Client) OptionFunc {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

// WithLogger sets the logger used for request and failure logs.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithNotifier sets the observer receiving per-operation notifications.
func WithNotifier(notifier Notifier) OptionFunc {
	return func(opts *Options) {
		opts.Notifier = notifier
	}
}

// WithRegisterer registers the client request metrics with reg.
func WithRegisterer(reg prometheus.Registerer) OptionFunc {
	return func(opts *Options) {
		opts.Registerer = reg
	}
}

// NewOptions returns the defaults with funcs applied in order.
func NewOptions(funcs ...OptionFunc) *Options {
	baseURL := DefaultBaseURL

	opts := &Options{
		BaseURL:    &baseURL,
		Namespace:  DefaultNamespace,
		HTTPClient: &http.Client{},
		Logger:     zap.NewNop(),
		Notifier:   NopNotifier{},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// ParseBaseURL parses a configured base URL. The empty string yields
// DefaultBaseURL.
func ParseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		baseURL := DefaultBaseURL
		return &baseURL, nil
	}

	baseURL, err := url.Parse(raw)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", raw)
	}

	return baseURL, nil
}
