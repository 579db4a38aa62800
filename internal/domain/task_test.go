package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	userID := uuid.New()

	task, err := NewTask(userID, "  Write tests  ", "cover the edge cases", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.ID == uuid.Nil {
		t.Error("Expected non-nil task ID")
	}
	if task.Title != "Write tests" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Status != StatusTodo {
		t.Errorf("Expected new task in %s, got %s", StatusTodo, task.Status)
	}
	if task.Order != 3 {
		t.Errorf("Expected order 3, got %d", task.Order)
	}

	if _, err := NewTask(uuid.Nil, "title", "", 0); err != ErrTaskUserIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskUserIDEmpty, err)
	}
	if _, err := NewTask(userID, "   ", "", 0); !errors.Is(err, ErrTaskTitleEmpty) {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}
	if _, err := NewTask(userID, "t", "", -1); !errors.Is(err, ErrNegativeTaskOrder) {
		t.Errorf("Expected error %v, got %v", ErrNegativeTaskOrder, err)
	}
}

func TestTaskValidateLimits(t *testing.T) {
	task := Task{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Title:  strings.Repeat("t", MaxTitleLength),
		Status: StatusDone,
	}
	if err := task.Validate(); err != nil {
		t.Errorf("Expected title at the limit to be valid, got %v", err)
	}

	task.Title = strings.Repeat("t", MaxTitleLength+1)
	if err := task.Validate(); !errors.Is(err, ErrTaskTitleTooLong) {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleTooLong, err)
	}

	task.Title = "ok"
	task.Description = strings.Repeat("d", MaxDescriptionLength+1)
	if err := task.Validate(); !errors.Is(err, ErrTaskDescTooLong) {
		t.Errorf("Expected error %v, got %v", ErrTaskDescTooLong, err)
	}

	task.Description = ""
	task.Status = "BLOCKED"
	err := task.Validate()
	if !errors.Is(err, ErrInvalidTaskStatus) {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskStatus, err)
	}
	if !IsValidationError(err) {
		t.Error("Expected status error to be a validation error")
	}
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    TaskStatus
		wantErr bool
	}{
		{"TODO", StatusTodo, false},
		{"todo", StatusTodo, false},
		{"in-progress", StatusInProgress, false},
		{"In Progress", StatusInProgress, false},
		{" done ", StatusDone, false},
		{"blocked", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		got, err := ParseTaskStatus(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTaskStatus(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseTaskStatus(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestLaneRank(t *testing.T) {
	lanes := Lanes()
	for i, lane := range lanes {
		if lane.Rank() != i {
			t.Errorf("Expected %s rank %d, got %d", lane, i, lane.Rank())
		}
	}
	if TaskStatus("X").Rank() <= StatusDone.Rank() {
		t.Error("Expected unknown status to rank after every lane")
	}
}

func TestValidatePositions(t *testing.T) {
	id := uuid.New()

	if err := ValidatePositions(nil); err != nil {
		t.Errorf("Expected empty batch to be valid, got %v", err)
	}

	valid := []TaskPosition{
		{ID: id, Status: StatusTodo, Order: 0},
		{ID: uuid.New(), Status: StatusDone, Order: 4},
	}
	if err := ValidatePositions(valid); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	dup := []TaskPosition{
		{ID: id, Status: StatusTodo, Order: 0},
		{ID: id, Status: StatusDone, Order: 1},
	}
	if err := ValidatePositions(dup); !errors.Is(err, ErrDuplicateReorderIDs) {
		t.Errorf("Expected error %v, got %v", ErrDuplicateReorderIDs, err)
	}

	negative := []TaskPosition{{ID: id, Status: StatusTodo, Order: -1}}
	if err := ValidatePositions(negative); !errors.Is(err, ErrNegativeTaskOrder) {
		t.Errorf("Expected error %v, got %v", ErrNegativeTaskOrder, err)
	}

	nilID := []TaskPosition{{Status: StatusTodo}}
	if err := ValidatePositions(nilID); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected error %v, got %v", ErrInvalidID, err)
	}
}

func TestTaskPatch(t *testing.T) {
	if !(TaskPatch{}).IsEmpty() {
		t.Error("Expected zero patch to be empty")
	}

	title := "  renamed "
	status := StatusInProgress
	order := 2
	patch := TaskPatch{Title: &title, Status: &status, Order: &order}
	if err := patch.Validate(); err != nil {
		t.Fatalf("Expected valid patch, got %v", err)
	}

	before := Task{ID: uuid.New(), Title: "old", Description: "keep", Status: StatusTodo}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	after := patch.ApplyTo(before, now)

	if after.Title != "renamed" || after.Description != "keep" {
		t.Errorf("Unexpected patched fields: %+v", after)
	}
	if after.Status != StatusInProgress || after.Order != 2 {
		t.Errorf("Expected IN_PROGRESS/2, got %s/%d", after.Status, after.Order)
	}
	if !after.UpdatedAt.Equal(now) {
		t.Errorf("Expected UpdatedAt %v, got %v", now, after.UpdatedAt)
	}
	if before.Title != "old" {
		t.Error("ApplyTo must not modify its input")
	}

	bad := StatusDone + "?"
	if err := (TaskPatch{Status: &bad}).Validate(); !errors.Is(err, ErrInvalidTaskStatus) {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskStatus, err)
	}
	empty := ""
	if err := (TaskPatch{Title: &empty}).Validate(); !errors.Is(err, ErrTaskTitleEmpty) {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}
}
