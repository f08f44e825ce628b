// Package handler provides HTTP request handlers for the collection REST API.
package handler

import "github.com/vyrodovalexey/casedesk/internal/model"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// Publisher receives change events emitted after successful mutations.
type Publisher interface {
	Publish(event model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.Event) {}
