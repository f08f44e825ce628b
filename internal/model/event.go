package model

import "time"

// EventType identifies the kind of change carried by an Event.
type EventType string

// Change event types.
const (
	EventItemCreated EventType = "item_created"
	EventItemUpdated EventType = "item_updated"
	EventItemDeleted EventType = "item_deleted"
	EventPing        EventType = "ping"
	EventError       EventType = "error"
)

// Event is a change notification pushed over the WebSocket feed.
type Event struct {
	Type       EventType `json:"type" yaml:"type"`
	Collection string    `json:"collection,omitempty" yaml:"collection,omitempty"`
	ID         string    `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewEvent creates an event stamped with the current UTC time.
func NewEvent(eventType EventType, collection, id string) Event {
	return Event{
		Type:       eventType,
		Collection: collection,
		ID:         id,
		Timestamp:  time.Now().UTC(),
	}
}
