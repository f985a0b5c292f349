package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProjectCreated   EventType = "project_created"
	EventProjectUpdated   EventType = "project_updated"
	EventProjectRenamed   EventType = "project_renamed"
	EventProjectArchived  EventType = "project_archived"
	EventProjectRestored  EventType = "project_restored"
	EventMilestoneCreated EventType = "milestone_created"
	EventMilestoneUpdated EventType = "milestone_updated"
	EventMilestoneDeleted EventType = "milestone_deleted"
	EventUserCreated      EventType = "user_created"
	EventUserUpdated      EventType = "user_updated"
)

// AllEventTypes lists every type services publish.
var AllEventTypes = []EventType{
	EventProjectCreated,
	EventProjectUpdated,
	EventProjectRenamed,
	EventProjectArchived,
	EventProjectRestored,
	EventMilestoneCreated,
	EventMilestoneUpdated,
	EventMilestoneDeleted,
	EventUserCreated,
	EventUserUpdated,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType EventType, subject, actor string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ProjectRenamedPayload payload.
type ProjectRenamedPayload struct {
	OldTitle string `json:"old_title"`
	NewTitle string `json:"new_title"`
}

// MilestonePayload payload.
type MilestonePayload struct {
	MilestoneID  string `json:"milestone_id"`
	ProjectTitle string `json:"project_title"`
	Title        string `json:"title"`
}

// UserPayload payload.
type UserPayload struct {
	Role string `json:"role"`
}
