package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/ordering"
)

// Gesture errors
var (
	ErrDragInProgress = errors.New("a drag is already in progress")
	ErrNoActiveDrag   = errors.New("no drag in progress")
	ErrUnknownTask    = errors.New("task is not on the board")
)

// TaskAPI is the server contract the board talks to.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, title, description string) (*domain.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, updates []domain.TaskPosition) error
}

// Phase is the state of the drag gesture machine.
type Phase int

// Gesture phases.
const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// Board drives optimistic edits of a task collection against a TaskAPI.
//
// Every mutation is applied to the cache before the network call is issued
// and is either committed or rolled back once the call returns. Failures are
// always returned to the caller after the cache has been restored.
type Board struct {
	api    TaskAPI
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	phase       Phase
	activeID    uuid.UUID
	base        []domain.Task
	speculative *Mutation
}

// New creates a Board backed by api and cache.
func New(api TaskAPI, cache *Cache, logger *slog.Logger) (*Board, error) {
	if api == nil {
		return nil, fmt.Errorf("api cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		api:    api,
		cache:  cache,
		logger: logger.With(slog.String("component", "board")),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Cache returns the board's cache, for subscribing to changes.
func (b *Board) Cache() *Cache {
	return b.cache
}

// Tasks returns the current tasks in board order.
func (b *Board) Tasks() []domain.Task {
	return b.cache.Snapshot()
}

// Lane returns the tasks of one lane in display order.
func (b *Board) Lane(status domain.TaskStatus) []domain.Task {
	return ordering.Group(b.cache.Snapshot(), status)
}

// Phase returns the current gesture phase.
func (b *Board) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Refresh replaces the cache with the server's collection.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.api.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}
	b.cache.Replace(tasks)
	return nil
}

// DragStart begins a gesture on the task with the given id. The task's
// current position is where the drop is computed from.
func (b *Board) DragStart(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != Idle {
		return ErrDragInProgress
	}
	snapshot := b.cache.Snapshot()
	if _, ok := findTask(snapshot, id); !ok {
		return ErrUnknownTask
	}

	b.phase = Dragging
	b.activeID = id
	b.base = snapshot
	b.speculative = nil
	return nil
}

// DragOver moves the dragged task into the hovered lane while the pointer is
// still down. Only the status changes; the final drop recomputes positions
// from the task's starting position and supersedes this state.
func (b *Board) DragOver(over ordering.DropTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != Dragging {
		return ErrNoActiveDrag
	}

	current := b.cache.Snapshot()
	lane := over.Lane
	if over.TaskID != uuid.Nil {
		t, ok := findTask(current, over.TaskID)
		if !ok {
			return nil
		}
		lane = t.Status
	}
	active, ok := findTask(current, b.activeID)
	if !ok || !lane.Valid() || active.Status == lane {
		return nil
	}

	id := b.activeID
	move := func(tasks []domain.Task) []domain.Task {
		for i := range tasks {
			if tasks[i].ID == id {
				tasks[i].Status = lane
			}
		}
		return tasks
	}
	if b.speculative == nil {
		b.speculative = b.cache.Apply(move)
	} else {
		b.cache.Amend(b.speculative, move)
	}
	return nil
}

// DragCancel abandons the gesture and reverts any speculative state.
func (b *Board) DragCancel() {
	b.mu.Lock()
	restore := b.restoreActive()
	pending := b.endGesture()
	b.mu.Unlock()

	b.dropHover(pending, restore)
}

// restoreActive returns a mutator that puts the dragged task back at its
// starting position. Must be called with b.mu held, before endGesture.
func (b *Board) restoreActive() Mutator {
	id := b.activeID
	origin, _ := findTask(b.base, id)
	return func(tasks []domain.Task) []domain.Task {
		for i := range tasks {
			// Hovering only changes the lane; a task whose order moved was
			// rewritten by someone else and is left alone.
			if tasks[i].ID == id && tasks[i].Order == origin.Order {
				tasks[i].Status = origin.Status
			}
		}
		return tasks
	}
}

// dropHover reverts the speculative lane change. When newer writes landed
// on top of it the snapshot is stale, so only the dragged task is put back.
func (b *Board) dropHover(pending *Mutation, restore Mutator) {
	if pending == nil {
		return
	}
	if err := b.cache.Rollback(pending); err != nil {
		b.logger.Debug("speculative drag state superseded, restoring dragged task only", slog.Any("error", err))
		b.cache.Apply(restore)
	}
}

// DragEnd finishes the gesture with a drop on over. The drop is reconciled
// against the current board with the dragged task put back where the gesture
// started, so hover state never survives the drop and writes that landed
// mid-drag take part in the re-rank. The result is applied to the cache and
// the changed positions are sent as one batch. A failed batch is rolled back
// and its error returned.
func (b *Board) DragEnd(ctx context.Context, over ordering.DropTarget) error {
	b.mu.Lock()
	if b.phase != Dragging {
		b.mu.Unlock()
		return ErrNoActiveDrag
	}
	activeID := b.activeID
	restore := b.restoreActive()
	pending := b.endGesture()
	b.mu.Unlock()

	b.dropHover(pending, restore)

	current := b.cache.Snapshot()
	res := ordering.Reconcile(current, activeID, over)
	if res.IsNoop() {
		return nil
	}

	m := b.cache.Apply(func(tasks []domain.Task) []domain.Task {
		return ordering.Overlay(tasks, res.Affected)
	})

	updates := ordering.Diff(current, ordering.Overlay(current, res.Affected))
	b.logger.Debug("sending reorder batch",
		slog.String("task_id", activeID.String()),
		slog.String("status", string(res.Status)),
		slog.Int("updates", len(updates)))

	if err := b.api.Reorder(ctx, updates); err != nil {
		return b.rollback(ctx, m, fmt.Errorf("failed to reorder tasks: %w", err))
	}
	b.cache.Commit(m)
	return nil
}

// endGesture resets the machine to Idle and returns the speculative
// mutation, if any. Must be called with b.mu held.
func (b *Board) endGesture() *Mutation {
	pending := b.speculative
	b.phase = Idle
	b.activeID = uuid.Nil
	b.base = nil
	b.speculative = nil
	return pending
}

// CreateTask adds a task to the end of the TODO lane under a temporary id,
// then swaps in the server's task.
func (b *Board) CreateTask(ctx context.Context, title, description string) (*domain.Task, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}

	now := b.now()
	local := domain.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      domain.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m := b.cache.Apply(func(tasks []domain.Task) []domain.Task {
		local.Order = ordering.NextOrderIn(tasks, domain.StatusTodo)
		return append(tasks, local)
	})

	created, err := b.api.CreateTask(ctx, title, description)
	if err != nil {
		return nil, b.rollback(ctx, m, fmt.Errorf("failed to create task: %w", err))
	}
	b.cache.CommitCreate(m, local.ID, *created)
	return created, nil
}

// UpdateTask applies patch to the task with the given id. A status change
// without an explicit order appends the task to its new lane, as the server does.
func (b *Board) UpdateTask(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, ok := b.cache.Get(id); !ok {
		return nil, ErrUnknownTask
	}

	now := b.now()
	m := b.cache.Apply(func(tasks []domain.Task) []domain.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			next := patch.ApplyTo(t, now)
			if patch.Status != nil && patch.Order == nil && *patch.Status != t.Status {
				next.Order = ordering.NextOrderIn(tasks, *patch.Status)
			}
			tasks[i] = next
		}
		return tasks
	})

	updated, err := b.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, b.rollback(ctx, m, fmt.Errorf("failed to update task: %w", err))
	}
	b.cache.Commit(m, *updated)
	return updated, nil
}

// DeleteTask removes the task with the given id.
func (b *Board) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, ok := b.cache.Get(id); !ok {
		return ErrUnknownTask
	}

	m := b.cache.Apply(func(tasks []domain.Task) []domain.Task {
		return slices.DeleteFunc(tasks, func(t domain.Task) bool { return t.ID == id })
	})

	if err := b.api.DeleteTask(ctx, id); err != nil {
		return b.rollback(ctx, m, fmt.Errorf("failed to delete task: %w", err))
	}
	return nil
}

// rollback restores the state from before m and returns cause. When newer
// state has been written since m, the stale snapshot is dropped and the board
// is refetched from the server instead.
func (b *Board) rollback(ctx context.Context, m *Mutation, cause error) error {
	err := b.cache.Rollback(m)
	if err == nil {
		b.logger.Warn("optimistic update rolled back", slog.Any("error", cause))
		return cause
	}

	b.logger.Warn("stale rollback discarded, refetching board",
		slog.Uint64("mutation_version", m.Version()),
		slog.Any("error", cause))
	if refreshErr := b.Refresh(ctx); refreshErr != nil {
		return errors.Join(cause, refreshErr)
	}
	return cause
}
