package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/casedesk/internal/model"
	"github.com/vyrodovalexey/casedesk/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// maxBodyBytes bounds the size of create and update request bodies.
const maxBodyBytes = 1 << 20

// RESTHandler handles the collection REST API.
type RESTHandler struct {
	store     store.Store
	publisher Publisher
	logger    *zap.Logger
	namespace string
}

// NewRESTHandler creates a new RESTHandler instance serving /api/{namespace}.
// A nil publisher disables change events.
func NewRESTHandler(s store.Store, publisher Publisher, logger *zap.Logger, namespace string) *RESTHandler {
	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &RESTHandler{
		store:     s,
		publisher: publisher,
		logger:    logger,
		namespace: namespace,
	}
}

// RegisterRoutes registers the REST API routes with the router.
// The list and create routes are registered before the {id} routes so that
// they take precedence.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api/" + h.namespace + "/{collection}").Subrouter()
	api.HandleFunc("/list", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/create", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/{id}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.UpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListItems handles GET /api/{namespace}/{collection}/list requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	collection := mux.Vars(r)["collection"]

	items, err := h.store.List(ctx, collection)
	if err != nil {
		h.handleStoreError(w, err, "list items", collection)
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// GetItem handles GET /api/{namespace}/{collection}/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	item, err := h.store.Get(ctx, vars["collection"], vars["id"])
	if err != nil {
		h.handleStoreError(w, err, "get item", vars["collection"])
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST /api/{namespace}/{collection}/create requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	collection := mux.Vars(r)["collection"]

	input, ok := h.decodeMutation(w, r, collection)
	if !ok {
		return
	}

	item, err := h.store.Create(ctx, collection, input.Data)
	if err != nil {
		h.handleStoreError(w, err, "create item", collection)
		return
	}

	h.publisher.Publish(model.NewEvent(model.EventItemCreated, collection, item.ID()))
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(item))
}

// UpdateItem handles PUT /api/{namespace}/{collection}/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	collection := vars["collection"]

	input, ok := h.decodeMutation(w, r, collection)
	if !ok {
		return
	}

	if id := input.Data.ID(); id != "" && id != vars["id"] {
		h.writeError(w, http.StatusBadRequest, model.ErrReservedFieldChange.Error())
		return
	}

	item, err := h.store.Update(ctx, collection, vars["id"], input.Data)
	if err != nil {
		h.handleStoreError(w, err, "update item", collection)
		return
	}

	h.publisher.Publish(model.NewEvent(model.EventItemUpdated, collection, item.ID()))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// DeleteItem handles DELETE /api/{namespace}/{collection}/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	collection := vars["collection"]

	if err := h.store.Delete(ctx, collection, vars["id"]); err != nil {
		h.handleStoreError(w, err, "delete item", collection)
		return
	}

	h.publisher.Publish(model.NewEvent(model.EventItemDeleted, collection, vars["id"]))
	h.writeJSON(w, http.StatusNoContent, nil)
}

// decodeMutation reads and validates a {collection, data} request body.
// It writes the error response itself and reports whether decoding succeeded.
func (h *RESTHandler) decodeMutation(w http.ResponseWriter, r *http.Request, collection string) (*model.MutationRequest, bool) {
	var input model.MutationRequest

	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.String("collection", collection), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := input.Validate(collection); err != nil {
		h.logger.Warn("validation failed", zap.String("collection", collection), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return &input, true
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation, collection string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid item ID")
	case errors.Is(err, store.ErrInvalidCollection):
		h.writeError(w, http.StatusBadRequest, "invalid collection")
	case errors.Is(err, store.ErrNilItem):
		h.writeError(w, http.StatusBadRequest, "invalid request body")
	default:
		h.logger.Error("store operation failed",
			zap.String("operation", operation),
			zap.String("collection", collection),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
