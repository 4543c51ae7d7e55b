package eventbus

import "time"

type EventType string

const (
	TaskAdded      EventType = "task.added"
	TaskDeleted    EventType = "task.deleted"
	TaskUpdated    EventType = "task.updated"
	HistoryUndone  EventType = "history.undone"
	HistoryRedone  EventType = "history.redone"
	TasksRefreshed EventType = "tasks.refreshed"
	UserLoggedIn   EventType = "user.logged_in"
)

// Event is one notification on the bus. Payload carries the affected record
// as a JSON string so subscribers can log or forward it without importing
// the domain packages.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	ResourceID string            `json:"resourceId,omitempty"`
	Payload    string            `json:"payload,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
