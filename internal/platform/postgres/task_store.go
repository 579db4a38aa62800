package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/store"
)

const taskColumns = `id, user_id, title, description, status, "order", created_at, updated_at`

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store on db, which may be a *sql.DB or
// a *sql.Tx. If logger is nil, the default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		status      string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &status, &t.Order, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Status = domain.TaskStatus(status)
	return &t, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		nullableString(task.Description),
		string(task.Status),
		task.Order,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)),
		slog.Int("order", task.Order))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser. The status column is an
// enum declared in lane order, so sorting by it yields TODO, IN_PROGRESS, DONE.
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY status ASC, "order" ASC, created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, "order" = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		nullableString(task.Description),
		string(task.Status),
		task.Order,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// NextOrder implements store.TaskStore.NextOrder.
func (s *PostgresTaskStore) NextOrder(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) (int, error) {
	query := `SELECT COALESCE(MAX("order") + 1, 0) FROM tasks WHERE user_id = $1 AND status = $2`

	var next int
	if err := s.db.QueryRowContext(ctx, query, userID, string(status)).Scan(&next); err != nil {
		return 0, MapError(err)
	}
	return next, nil
}

// CountOwned implements store.TaskStore.CountOwned.
func (s *PostgresTaskStore) CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND id IN (` + strings.Join(placeholders, ", ") + `)`

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// UpdatePositions implements store.TaskStore.UpdatePositions. A missing row
// aborts the batch with ErrTaskNotFound.
func (s *PostgresTaskStore) UpdatePositions(ctx context.Context, userID uuid.UUID, updates []domain.TaskPosition) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	query := `UPDATE tasks SET status = $1, "order" = $2, updated_at = $3 WHERE id = $4 AND user_id = $5`
	for _, u := range updates {
		result, err := s.db.ExecContext(ctx, query, string(u.Status), u.Order, now, u.ID, userID)
		if err != nil {
			log.Error("failed to update task position",
				slog.String("task_id", u.ID.String()),
				slog.String("error", err.Error()))
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
			return err
		}
	}

	log.Debug("task positions updated", slog.Int("count", len(updates)))
	return nil
}

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}
