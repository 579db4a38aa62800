package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/store"
)

// TaskService provides the task operations behind the REST API. Every
// method is scoped to userID.
type TaskService interface {
	// ListTasks returns the user's tasks ordered by lane, order, then newest.
	ListTasks(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)

	// GetTask returns one task, or store.ErrTaskNotFound.
	GetTask(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// CreateTask appends a new task to the user's TODO lane.
	CreateTask(ctx context.Context, userID uuid.UUID, title, description string) (*domain.Task, error)

	// UpdateTask applies patch. A status change without an order appends the
	// task to the destination lane.
	UpdateTask(ctx context.Context, userID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask removes the task permanently.
	DeleteTask(ctx context.Context, userID, id uuid.UUID) error

	// ReorderTasks applies a batch of position updates atomically. Returns
	// ErrNotOwned if any id is missing or belongs to someone else.
	ReorderTasks(ctx context.Context, userID uuid.UUID, updates []domain.TaskPosition) error
}

// TaskListCache is the read-through cache consulted by ListTasks. Eviction
// happens through the event emitter. A miss returns a generation that Set
// compares against, so a list loaded before an eviction is never stored.
type TaskListCache interface {
	Get(ctx context.Context, userID uuid.UUID) (tasks []domain.Task, gen string, ok bool)
	Set(ctx context.Context, userID uuid.UUID, gen string, tasks []domain.Task)
}

// TaskServiceOption configures optional TaskService collaborators.
type TaskServiceOption func(*taskServiceImpl)

// WithTaskListCache enables list caching.
func WithTaskListCache(cache TaskListCache) TaskServiceOption {
	return func(s *taskServiceImpl) { s.cache = cache }
}

// WithEventEmitter sets the emitter notified after each committed write.
func WithEventEmitter(emitter events.EventEmitter) TaskServiceOption {
	return func(s *taskServiceImpl) { s.emitter = emitter }
}

type taskServiceImpl struct {
	taskStore store.TaskStore
	db        *sql.DB
	cache     TaskListCache
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewTaskService creates a TaskService. db is used to open transactions and
// must not be nil.
func NewTaskService(
	taskStore store.TaskStore,
	db *sql.DB,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &taskServiceImpl{
		taskStore: taskStore,
		db:        db,
		emitter:   events.NopEmitter{},
		logger:    logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	var gen string
	if s.cache != nil {
		tasks, g, ok := s.cache.Get(ctx, userID)
		if ok {
			return tasks, nil
		}
		gen = g
	}

	tasks, err := s.taskStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewTaskServiceError("list", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, userID, gen, tasks)
	}
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, userID, id)
	if err != nil {
		return nil, NewTaskServiceError("get", err)
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		order, err := txStore.NextOrder(ctx, userID, domain.StatusTodo)
		if err != nil {
			return err
		}

		task, err = domain.NewTask(userID, title, description, order)
		if err != nil {
			return err
		}
		return txStore.Create(ctx, task)
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, err
		}
		log.Error("failed to create task",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int("order", task.Order))
	s.emit(ctx, events.NewTaskEvent(events.TaskCreated, userID, task.ID))
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userID, id uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		current, err := txStore.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		if patch.Status != nil && *patch.Status != current.Status && patch.Order == nil {
			order, err := txStore.NextOrder(ctx, userID, *patch.Status)
			if err != nil {
				return err
			}
			patch.Order = &order
		}

		if patch.IsEmpty() {
			updated = *current
			return nil
		}
		updated = patch.ApplyTo(*current, time.Now().UTC())
		return txStore.Update(ctx, &updated)
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, err
		}
		if !errors.Is(err, store.ErrTaskNotFound) {
			log.Error("failed to update task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, NewTaskServiceError("update", err)
	}

	if !patch.IsEmpty() {
		s.emit(ctx, events.NewTaskEvent(events.TaskUpdated, userID, id))
	}
	return &updated, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.taskStore.Delete(ctx, userID, id); err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return NewTaskServiceError("delete", err)
	}

	s.emit(ctx, events.NewTaskEvent(events.TaskDeleted, userID, id))
	return nil
}

func (s *taskServiceImpl) ReorderTasks(
	ctx context.Context,
	userID uuid.UUID,
	updates []domain.TaskPosition,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePositions(updates); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		owned, err := txStore.CountOwned(ctx, userID, ids)
		if err != nil {
			return err
		}
		if owned != len(ids) {
			return ErrNotOwned
		}
		return txStore.UpdatePositions(ctx, userID, updates)
	})
	if err != nil {
		if errors.Is(err, ErrNotOwned) {
			log.Warn("reorder rejected: batch contains tasks not owned by user",
				slog.String("user_id", userID.String()),
				slog.Int("batch_size", len(updates)))
		} else {
			log.Error("failed to reorder tasks",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
		return NewTaskServiceError("reorder", err)
	}

	log.Debug("tasks reordered", slog.Int("batch_size", len(updates)))
	s.emit(ctx, events.NewTaskEvent(events.TasksReordered, userID, ids...))
	return nil
}

// emit publishes event. Handler failures are logged and never fail the
// already-committed write.
func (s *taskServiceImpl) emit(ctx context.Context, event *events.TaskEvent) {
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("event handler failed",
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}
