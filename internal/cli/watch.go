package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/casedesk/internal/model"
	"github.com/vyrodovalexey/casedesk/pkg/client"
)

var errNegativeCount = errors.New("--count must not be negative")

func watchCmd(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch [COLLECTION]",
		Short: "Stream change events, optionally for a single collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return errNegativeCount
			}

			render, err := newPrinter(opts.output)
			if err != nil {
				return err
			}

			baseURL, err := client.ParseBaseURL(opts.baseURL)
			if err != nil {
				return err
			}

			var collection string
			if len(args) == 1 {
				collection = args[0]
			}

			ctx := cmd.Context()
			logger := opts.newLogger(cmd)

			wsURL := watchURL(baseURL, collection)
			logger.Debug("dialing event feed", zap.String("url", wsURL.String()))

			dialer := websocket.Dialer{
				Proxy:            http.ProxyFromEnvironment,
				HandshakeTimeout: opts.timeout,
			}
			conn, resp, err := dialer.DialContext(ctx, wsURL.String(), nil)
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", wsURL.Redacted(), err)
			}
			defer func() { _ = conn.Close() }()

			// Unblock the read loop on cancellation.
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()

			for received := 0; count == 0 || received < count; received++ {
				var event model.Event
				if err := conn.ReadJSON(&event); err != nil {
					if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return fmt.Errorf("reading event: %w", err)
				}

				if err := render(cmd.OutOrStdout(), event); err != nil {
					return err
				}
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many events (0 streams until interrupted)")

	return cmd
}

// watchURL maps the HTTP base URL to the WebSocket event feed.
func watchURL(baseURL *url.URL, collection string) *url.URL {
	u := baseURL.JoinPath("ws")
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	if collection != "" {
		q := u.Query()
		q.Set("collection", collection)
		u.RawQuery = q.Encode()
	}

	return u
}
