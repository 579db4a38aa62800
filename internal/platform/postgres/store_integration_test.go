//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/phrazzld/taskboard/internal/testdb"
)

func createTestUser(t *testing.T, ctx context.Context, tx *sql.Tx, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "correct-horse", "Test", "User")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	require.NoError(t, postgres.NewPostgresUserStore(tx, nil).Create(ctx, user))
	return user
}

func TestIntegration_TaskLifecycle(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		owner := createTestUser(t, ctx, tx, "owner-"+uuid.NewString()+"@example.com")
		other := createTestUser(t, ctx, tx, "other-"+uuid.NewString()+"@example.com")
		tasks := postgres.NewPostgresTaskStore(tx, nil)

		next, err := tasks.NextOrder(ctx, owner.ID, domain.StatusTodo)
		require.NoError(t, err)
		assert.Zero(t, next, "empty lane starts at zero")

		var created []*domain.Task
		for i, title := range []string{"first", "second", "third"} {
			task, err := domain.NewTask(owner.ID, title, "", i)
			require.NoError(t, err)
			require.NoError(t, tasks.Create(ctx, task))
			created = append(created, task)
		}

		next, err = tasks.NextOrder(ctx, owner.ID, domain.StatusTodo)
		require.NoError(t, err)
		assert.Equal(t, 3, next)

		// Move the last task to the front of IN_PROGRESS.
		moved := created[2]
		require.NoError(t, tasks.UpdatePositions(ctx, owner.ID, []domain.TaskPosition{
			{ID: moved.ID, Status: domain.StatusInProgress, Order: 0},
		}))

		listed, err := tasks.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, "first", listed[0].Title)
		assert.Equal(t, "second", listed[1].Title)
		assert.Equal(t, moved.ID, listed[2].ID, "IN_PROGRESS sorts after TODO")

		count, err := tasks.CountOwned(ctx, other.ID, []uuid.UUID{created[0].ID, created[1].ID})
		require.NoError(t, err)
		assert.Zero(t, count, "other user owns none of these")

		_, err = tasks.GetByID(ctx, other.ID, created[0].ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		require.NoError(t, tasks.Delete(ctx, owner.ID, created[0].ID))
		assert.ErrorIs(t, tasks.Delete(ctx, owner.ID, created[0].ID), store.ErrTaskNotFound)
	})
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		email := "dup-" + uuid.NewString() + "@example.com"
		createTestUser(t, ctx, tx, email)

		dup, err := domain.NewUser(email, "correct-horse", "Dup", "User")
		require.NoError(t, err)
		dup.HashedPassword = "hash"
		err = postgres.NewPostgresUserStore(tx, nil).Create(ctx, dup)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})
}
