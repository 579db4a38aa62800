package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
)

// TaskStore defines the interface for task persistence. Every read and write
// is scoped to the owning user; a task owned by someone else behaves exactly
// like a missing one.
type TaskStore interface {
	// Create inserts a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns the user's task. Returns ErrTaskNotFound if it does not
	// exist or is owned by another user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns all of the user's tasks ordered by status, order,
	// then newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)

	// Update writes every mutable field of task. Returns ErrTaskNotFound if
	// no row owned by task.UserID matches.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the user's task permanently.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// NextOrder returns max(order)+1 within the user's lane, or 0 when the
	// lane is empty.
	NextOrder(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) (int, error)

	// CountOwned returns how many of ids belong to the user.
	CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)

	// UpdatePositions sets status and order for each update. It should run
	// inside a transaction so the batch applies atomically.
	UpdatePositions(ctx context.Context, userID uuid.UUID, updates []domain.TaskPosition) error

	// WithTx returns a TaskStore that runs its queries in tx.
	WithTx(tx *sql.Tx) TaskStore
}
