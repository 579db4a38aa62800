package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/mocks"
	"github.com/phrazzld/taskboard/internal/platform/cache"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/store"
)

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	err    error
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingEmitter) types() []events.TaskEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.TaskEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// mapCache is an in-process service.TaskListCache.
type mapCache struct {
	entries map[uuid.UUID][]domain.Task
	sets    int
}

func (c *mapCache) Get(_ context.Context, userID uuid.UUID) ([]domain.Task, string, bool) {
	tasks, ok := c.entries[userID]
	return tasks, "", ok
}

func (c *mapCache) Set(_ context.Context, userID uuid.UUID, _ string, tasks []domain.Task) {
	if c.entries == nil {
		c.entries = make(map[uuid.UUID][]domain.Task)
	}
	c.entries[userID] = tasks
	c.sets++
}

type taskServiceFixture struct {
	svc     service.TaskService
	store   *mocks.MockTaskStore
	sql     sqlmock.Sqlmock
	emitter *recordingEmitter
}

func newTaskServiceFixture(t *testing.T, opts ...service.TaskServiceOption) *taskServiceFixture {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)

	taskStore := &mocks.MockTaskStore{}
	emitter := &recordingEmitter{}
	opts = append([]service.TaskServiceOption{service.WithEventEmitter(emitter)}, opts...)

	svc, err := service.NewTaskService(taskStore, db, quietLogger(), opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		taskStore.AssertExpectations(t)
		_ = db.Close()
	})
	return &taskServiceFixture{svc: svc, store: taskStore, sql: sqlMock, emitter: emitter}
}

func TestNewTaskService_RequiresDependencies(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = service.NewTaskService(nil, db, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewTaskService(&mocks.MockTaskStore{}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("appends to the todo lane", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.sql.ExpectBegin()
		f.store.On("NextOrder", mock.Anything, userID, domain.StatusTodo).Return(3, nil)
		f.store.On("Create", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Order == 3 && task.Status == domain.StatusTodo && task.Title == "Write tests"
		})).Return(nil)
		f.sql.ExpectCommit()

		task, err := f.svc.CreateTask(ctx, userID, "  Write tests ", "")
		require.NoError(t, err)
		assert.Equal(t, 3, task.Order)
		assert.Equal(t, userID, task.UserID)
		assert.Equal(t, []events.TaskEventType{events.TaskCreated}, f.emitter.types())
	})

	t.Run("invalid title skips the database", func(t *testing.T) {
		f := newTaskServiceFixture(t)

		_, err := f.svc.CreateTask(ctx, userID, "   ", "")
		assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
		assert.True(t, domain.IsValidationError(err))
		assert.Empty(t, f.emitter.types())
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.sql.ExpectBegin()
		f.store.On("NextOrder", mock.Anything, userID, domain.StatusTodo).Return(0, nil)
		f.store.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		f.sql.ExpectRollback()

		_, err := f.svc.CreateTask(ctx, userID, "Doomed", "")
		var svcErr *service.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create", svcErr.Op)
		assert.Empty(t, f.emitter.types())
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	existing := func() *domain.Task {
		task, _ := domain.NewTask(userID, "Draft", "", 2)
		return task
	}

	t.Run("status change without order appends to destination lane", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		current := existing()
		done := domain.StatusDone

		f.sql.ExpectBegin()
		f.store.On("GetByID", mock.Anything, userID, current.ID).Return(current, nil)
		f.store.On("NextOrder", mock.Anything, userID, domain.StatusDone).Return(5, nil)
		f.store.On("Update", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Status == domain.StatusDone && task.Order == 5
		})).Return(nil)
		f.sql.ExpectCommit()

		updated, err := f.svc.UpdateTask(ctx, userID, current.ID, domain.TaskPatch{Status: &done})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDone, updated.Status)
		assert.Equal(t, 5, updated.Order)
		assert.Equal(t, []events.TaskEventType{events.TaskUpdated}, f.emitter.types())
	})

	t.Run("same lane status keeps order", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		current := existing()
		todo := domain.StatusTodo
		title := "Final"

		f.sql.ExpectBegin()
		f.store.On("GetByID", mock.Anything, userID, current.ID).Return(current, nil)
		f.store.On("Update", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Order == 2 && task.Title == "Final"
		})).Return(nil)
		f.sql.ExpectCommit()

		updated, err := f.svc.UpdateTask(ctx, userID, current.ID, domain.TaskPatch{Status: &todo, Title: &title})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Order)
		f.store.AssertNotCalled(t, "NextOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("explicit order wins", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		current := existing()
		inProgress := domain.StatusInProgress
		order := 0

		f.sql.ExpectBegin()
		f.store.On("GetByID", mock.Anything, userID, current.ID).Return(current, nil)
		f.store.On("Update", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Status == domain.StatusInProgress && task.Order == 0
		})).Return(nil)
		f.sql.ExpectCommit()

		_, err := f.svc.UpdateTask(ctx, userID, current.ID, domain.TaskPatch{Status: &inProgress, Order: &order})
		require.NoError(t, err)
	})

	t.Run("empty patch writes nothing", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		current := existing()

		f.sql.ExpectBegin()
		f.store.On("GetByID", mock.Anything, userID, current.ID).Return(current, nil)
		f.sql.ExpectCommit()

		updated, err := f.svc.UpdateTask(ctx, userID, current.ID, domain.TaskPatch{})
		require.NoError(t, err)
		assert.Equal(t, current.ID, updated.ID)
		assert.Empty(t, f.emitter.types())
	})

	t.Run("missing task", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		id := uuid.New()
		title := "x"

		f.sql.ExpectBegin()
		f.store.On("GetByID", mock.Anything, userID, id).Return(nil, store.ErrTaskNotFound)
		f.sql.ExpectRollback()

		_, err := f.svc.UpdateTask(ctx, userID, id, domain.TaskPatch{Title: &title})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("invalid patch", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		negative := -1

		_, err := f.svc.UpdateTask(ctx, userID, uuid.New(), domain.TaskPatch{Order: &negative})
		assert.ErrorIs(t, err, domain.ErrNegativeTaskOrder)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()

	t.Run("deletes and emits", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.store.On("Delete", mock.Anything, userID, id).Return(nil)

		require.NoError(t, f.svc.DeleteTask(ctx, userID, id))
		assert.Equal(t, []events.TaskEventType{events.TaskDeleted}, f.emitter.types())
	})

	t.Run("not found", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.store.On("Delete", mock.Anything, userID, id).Return(store.ErrTaskNotFound)

		assert.ErrorIs(t, f.svc.DeleteTask(ctx, userID, id), store.ErrTaskNotFound)
		assert.Empty(t, f.emitter.types())
	})

	t.Run("handler failure does not fail the delete", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.emitter.err = errors.New("cache down")
		f.store.On("Delete", mock.Anything, userID, id).Return(nil)

		assert.NoError(t, f.svc.DeleteTask(ctx, userID, id))
	})
}

func TestTaskService_ReorderTasks(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()
	updates := []domain.TaskPosition{
		{ID: a, Status: domain.StatusInProgress, Order: 0},
		{ID: b, Status: domain.StatusInProgress, Order: 1},
	}

	t.Run("applies batch in one transaction", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.sql.ExpectBegin()
		f.store.On("CountOwned", mock.Anything, userID, []uuid.UUID{a, b}).Return(2, nil)
		f.store.On("UpdatePositions", mock.Anything, userID, updates).Return(nil)
		f.sql.ExpectCommit()

		require.NoError(t, f.svc.ReorderTasks(ctx, userID, updates))
		require.Len(t, f.emitter.events, 1)
		assert.Equal(t, events.TasksReordered, f.emitter.events[0].Type)
		assert.ElementsMatch(t, []uuid.UUID{a, b}, f.emitter.events[0].TaskIDs)
	})

	t.Run("foreign task rejects the whole batch", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.sql.ExpectBegin()
		f.store.On("CountOwned", mock.Anything, userID, []uuid.UUID{a, b}).Return(1, nil)
		f.sql.ExpectRollback()

		err := f.svc.ReorderTasks(ctx, userID, updates)
		assert.ErrorIs(t, err, service.ErrNotOwned)
		f.store.AssertNotCalled(t, "UpdatePositions", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.emitter.types())
	})

	t.Run("duplicate ids are a validation error", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		dup := []domain.TaskPosition{updates[0], updates[0]}

		err := f.svc.ReorderTasks(ctx, userID, dup)
		assert.ErrorIs(t, err, domain.ErrDuplicateReorderIDs)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		assert.NoError(t, f.svc.ReorderTasks(ctx, userID, nil))
		assert.Empty(t, f.emitter.types())
	})

	t.Run("begin failure", func(t *testing.T) {
		f := newTaskServiceFixture(t)
		f.sql.ExpectBegin().WillReturnError(sql.ErrConnDone)

		err := f.svc.ReorderTasks(ctx, userID, updates)
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
	})
}

func TestTaskService_ListTasks_Cache(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	task, err := domain.NewTask(userID, "Cached", "", 0)
	require.NoError(t, err)
	tasks := []domain.Task{*task}

	cache := &mapCache{}
	f := newTaskServiceFixture(t, service.WithTaskListCache(cache))
	f.store.On("ListByUser", mock.Anything, userID).Return(tasks, nil).Once()

	first, err := f.svc.ListTasks(ctx, userID)
	require.NoError(t, err)
	second, err := f.svc.ListTasks(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, tasks, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestTaskService_ListTasks_ConcurrentWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	task, err := domain.NewTask(userID, "Before", "", 0)
	require.NoError(t, err)
	stale := []domain.Task{*task}
	fresh := []domain.Task{*task, *task}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	listCache := cache.NewTaskListCache(client, time.Minute, quietLogger())
	emitter := events.NewInMemoryEventEmitter(quietLogger())
	emitter.RegisterHandler(listCache)

	f := newTaskServiceFixture(t, service.WithTaskListCache(listCache), service.WithEventEmitter(emitter))
	// The first read loads its rows, then a write commits before it returns.
	f.store.On("ListByUser", mock.Anything, userID).Run(func(mock.Arguments) {
		require.NoError(t, emitter.EmitEvent(ctx, events.NewTaskEvent(events.TaskUpdated, userID)))
	}).Return(stale, nil).Once()
	f.store.On("ListByUser", mock.Anything, userID).Return(fresh, nil).Once()

	first, err := f.svc.ListTasks(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, stale, first)
	assert.False(t, mr.Exists("tasks:"+userID.String()))

	second, err := f.svc.ListTasks(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, second, 2, "the second read goes back to the store")

	third, err := f.svc.ListTasks(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, third, 2, "served from cache")
	f.store.AssertExpectations(t)
}

func TestTaskService_ListTasks_StoreError(t *testing.T) {
	f := newTaskServiceFixture(t)
	userID := uuid.New()
	f.store.On("ListByUser", mock.Anything, userID).Return(nil, errors.New("timeout"))

	_, err := f.svc.ListTasks(context.Background(), userID)
	assert.ErrorContains(t, err, "timeout")
}
