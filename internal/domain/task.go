package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits for tasks.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
)

// Task-specific validation errors
var (
	ErrTaskIDEmpty         = errors.New("task ID cannot be empty")
	ErrTaskUserIDEmpty     = errors.New("task user ID cannot be empty")
	ErrTaskTitleEmpty      = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong    = fmt.Errorf("task title must be at most %d characters", MaxTitleLength)
	ErrTaskDescTooLong     = fmt.Errorf("task description must be at most %d characters", MaxDescriptionLength)
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrNegativeTaskOrder   = errors.New("task order cannot be negative")
	ErrDuplicateReorderIDs = errors.New("task appears more than once in reorder batch")
)

// TaskStatus is the lane a task sits in. Lanes are a fixed, ordered set.
type TaskStatus string

// The board lanes, in display order.
const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Lanes returns every valid status in display order.
func Lanes() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s is one of the known lanes.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Rank is the position of the lane on the board (TODO=0). Unknown statuses
// sort after every known lane.
func (s TaskStatus) Rank() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	default:
		return 3
	}
}

// ParseTaskStatus converts user input into a TaskStatus. Matching is
// case-insensitive and accepts "-" or " " in place of "_".
func ParseTaskStatus(s string) (TaskStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	status := TaskStatus(norm)
	if !status.Valid() {
		return "", NewValidationError("status", fmt.Sprintf("must be one of %v", Lanes()), ErrInvalidTaskStatus)
	}
	return status, nil
}

// Task is a single card on a user's board. Order is only meaningful within
// the (UserID, Status) group.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a task in the TODO lane at the given order.
// The caller is responsible for computing order (append policy).
func NewTask(userID uuid.UUID, title, description string, order int) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      StatusTodo,
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "is not a known lane", ErrInvalidTaskStatus)
	}
	if t.Order < 0 {
		return NewValidationError("order", "cannot be negative", ErrNegativeTaskOrder)
	}
	return nil
}

// Position returns the (id, status, order) triple of the task.
func (t Task) Position() TaskPosition {
	return TaskPosition{ID: t.ID, Status: t.Status, Order: t.Order}
}

// SamePosition reports whether both tasks sit at the same (status, order).
func (t Task) SamePosition(other Task) bool {
	return t.Status == other.Status && t.Order == other.Order
}

// ValidateTitle enforces a non-blank title of at most MaxTitleLength characters.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "cannot be empty", ErrTaskTitleEmpty)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewValidationError("title", "is too long", ErrTaskTitleTooLong)
	}
	return nil
}

// ValidateDescription enforces the description length limit.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return NewValidationError("description", "is too long", ErrTaskDescTooLong)
	}
	return nil
}

// TaskPosition is the wire form of a single reorder update.
type TaskPosition struct {
	ID     uuid.UUID  `json:"id"`
	Status TaskStatus `json:"status"`
	Order  int        `json:"order"`
}

// Validate checks a single reorder update.
func (p TaskPosition) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if !p.Status.Valid() {
		return NewValidationError("status", "is not a known lane", ErrInvalidTaskStatus)
	}
	if p.Order < 0 {
		return NewValidationError("order", "cannot be negative", ErrNegativeTaskOrder)
	}
	return nil
}

// ValidatePositions validates a whole reorder batch, rejecting duplicate ids.
func ValidatePositions(updates []TaskPosition) error {
	seen := make(map[uuid.UUID]struct{}, len(updates))
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			return err
		}
		if _, ok := seen[u.ID]; ok {
			return NewValidationError("updates", "contain duplicate task "+u.ID.String(), ErrDuplicateReorderIDs)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}

// TaskPatch is a field-level update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Order       *int        `json:"order,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Order == nil
}

// Validate checks every field that is set.
func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewValidationError("status", "is not a known lane", ErrInvalidTaskStatus)
	}
	if p.Order != nil && *p.Order < 0 {
		return NewValidationError("order", "cannot be negative", ErrNegativeTaskOrder)
	}
	return nil
}

// ApplyTo returns a copy of t with the patch applied. UpdatedAt is set to now.
func (p TaskPatch) ApplyTo(t Task, now time.Time) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	t.UpdatedAt = now
	return t
}
