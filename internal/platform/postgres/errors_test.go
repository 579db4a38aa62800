package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/store"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "tasks",
		ColumnName:     "title",
		ConstraintName: "tasks_title_check",
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "no rows", err: sql.ErrNoRows, want: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), want: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), want: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), want: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), want: store.ErrInvalidEntity},
		{name: "invalid text representation", err: newPgError("22P02"), want: store.ErrInvalidEntity},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", newPgError("23505")), want: store.ErrDuplicate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := postgres.MapError(tc.err)
			if tc.wantNil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err, "original error is preserved")
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, postgres.MapError(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("wrapped: %w", newPgError("23505"))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("plain")))
}

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrTaskNotFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 0), nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))

	broken := sqlmock.NewErrorResult(errors.New("driver does not support RowsAffected"))
	assert.ErrorContains(t, postgres.CheckRowsAffected(broken, nil), "failed to get rows affected")
}
