package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskEventType names a change to a user's board.
type TaskEventType string

// Board change events emitted by the task service after a successful write.
const (
	TaskCreated    TaskEventType = "task.created"
	TaskUpdated    TaskEventType = "task.updated"
	TaskDeleted    TaskEventType = "task.deleted"
	TasksReordered TaskEventType = "tasks.reordered"
)

// TaskEvent describes a committed change to one or more of a user's tasks.
type TaskEvent struct {
	ID        uuid.UUID     `json:"id"`
	Type      TaskEventType `json:"type"`
	UserID    uuid.UUID     `json:"userId"`
	TaskIDs   []uuid.UUID   `json:"taskIds"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewTaskEvent creates an event for the given user and tasks.
func NewTaskEvent(eventType TaskEventType, userID uuid.UUID, taskIDs ...uuid.UUID) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		TaskIDs:   taskIDs,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler reacts to task events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter publishes task events without knowing who handles them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *TaskEvent) error { return nil }
