package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler implements EventHandler for testing.
type recordingHandler struct {
	events []*TaskEvent
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestNewTaskEvent(t *testing.T) {
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()

	event := NewTaskEvent(TasksReordered, userID, a, b)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TasksReordered, event.Type)
	assert.Equal(t, userID, event.UserID)
	assert.Equal(t, []uuid.UUID{a, b}, event.TaskIDs)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	event := NewTaskEvent(TaskCreated, uuid.New(), uuid.New())

	t.Run("no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("delivers to every handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		h1, h2 := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(h1)
		emitter.RegisterHandler(h2)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, []*TaskEvent{event}, h1.events)
		assert.Equal(t, []*TaskEvent{event}, h2.events)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failing := &recordingHandler{err: errors.New("handler error")}
		ok := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(ok)

		err := emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")
		assert.Len(t, ok.events, 1)
	})

	t.Run("handler func", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		var got TaskEventType
		emitter.RegisterHandler(HandlerFunc(func(ctx context.Context, e *TaskEvent) error {
			got = e.Type
			return nil
		}))

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, TaskCreated, got)
	})
}

func TestNopEmitter(t *testing.T) {
	var emitter EventEmitter = NopEmitter{}
	assert.NoError(t, emitter.EmitEvent(context.Background(), NewTaskEvent(TaskDeleted, uuid.New())))
}
