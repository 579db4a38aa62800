package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore is a testify mock of store.TaskStore. WithTx returns the
// same mock so expectations apply inside transactions too.
type MockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, userID, id)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	args := m.Called(ctx, userID)
	if tasks, ok := args.Get(0).([]domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockTaskStore) NextOrder(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) (int, error) {
	args := m.Called(ctx, userID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) UpdatePositions(ctx context.Context, userID uuid.UUID, updates []domain.TaskPosition) error {
	return m.Called(ctx, userID, updates).Error(0)
}

func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}
