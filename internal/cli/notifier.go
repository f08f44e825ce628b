package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vyrodovalexey/casedesk/pkg/client"
)

// terminalNotifier prints notifications as single lines, e.g.
// "✓ documentos: Item created successfully.".
type terminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminalNotifier(w io.Writer) *terminalNotifier {
	return &terminalNotifier{w: w}
}

func (n *terminalNotifier) Notify(_ context.Context, notification client.Notification) {
	// List failures are printed by the list command from the collection state.
	if notification.Operation == client.OperationList {
		return
	}

	mark := "✓"
	if notification.Level == client.LevelError {
		mark = "✗"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s %s: %s\n", mark, notification.Collection, notification.Message)
}
