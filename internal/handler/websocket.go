package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// subscriber is one connected WebSocket client of the change feed.
type subscriber struct {
	collection string
	send       chan model.Event
	cancel     context.CancelFunc
}

func (s *subscriber) wants(event model.Event) bool {
	return s.collection == "" || s.collection == event.Collection
}

// EventHub streams collection change events to WebSocket subscribers.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*subscriber
}

// NewEventHub creates a new EventHub instance.
func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*subscriber),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *EventHub) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades the request and subscribes the connection to
// change events. The optional "collection" query parameter filters events.
//
//nolint:contextcheck // intentional: WebSocket connections outlive the HTTP request context
func (h *EventHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if collection != "" {
		if err := model.ValidateCollectionName(collection); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	// The request context is canceled once the handler returns, so the
	// connection gets its own.
	ctx, cancel := context.WithCancel(context.Background())

	sub := &subscriber{
		collection: collection,
		send:       make(chan model.Event, sendBuffer),
		cancel:     cancel,
	}

	h.mu.Lock()
	h.clients[conn] = sub
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("collection", collection),
	)

	go h.writePump(ctx, conn, sub)
	go h.readPump(ctx, conn, cancel)
}

// Publish fans an event out to every matching subscriber. Subscribers whose
// buffer is full miss the event.
func (h *EventHub) Publish(event model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, sub := range h.clients {
		if !sub.wants(event) {
			continue
		}

		select {
		case sub.send <- event:
		default:
			h.logger.Warn("dropping change event for slow subscriber",
				zap.String("remote_addr", conn.RemoteAddr().String()),
				zap.String("type", string(event.Type)),
			)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains incoming messages so that control frames are processed.
func (h *EventHub) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer func() {
		cancel()
		h.removeClient(conn)
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read error", zap.Error(err))
				}
				return
			}
			h.logger.Debug("received message", zap.ByteString("message", message))
		}
	}
}

// writePump forwards published events and keeps the connection alive.
func (h *EventHub) writePump(ctx context.Context, conn *websocket.Conn, sub *subscriber) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(conn)
			return
		case event := <-sub.send:
			if err := h.sendEvent(conn, event); err != nil {
				h.logger.Debug("failed to send change event", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// sendEvent writes one change event to the connection.
func (h *EventHub) sendEvent(conn *websocket.Conn, event model.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// sendPing sends a ping message to the connection.
func (h *EventHub) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *EventHub) sendCloseMessage(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the clients map.
func (h *EventHub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, exists := h.clients[conn]; exists {
		sub.cancel()
		delete(h.clients, conn)
		h.logger.Info("websocket client disconnected", zap.String("remote_addr", conn.RemoteAddr().String()))
	}
}

// CloseAllConnections closes all active WebSocket connections.
func (h *EventHub) CloseAllConnections() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.clients))
	for _, sub := range h.clients {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	// Canceling makes each writePump send its close message.
	for _, sub := range subs {
		sub.cancel()
	}

	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	for conn := range h.clients {
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	h.logger.Info("all websocket connections closed")
}

var _ Publisher = (*EventHub)(nil)
