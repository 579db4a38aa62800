package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskboard/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         domain.User `json:"user"`
}

// CreateTaskRequest defines the payload for POST /tasks. New tasks always
// start in the TODO lane.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateTaskRequest defines the payload for PATCH /tasks/{id}. Absent
// fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Status      *string `json:"status"      validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Order       *int    `json:"order"       validate:"omitempty,gte=0"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateTaskRequest) ToPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Order:       r.Order,
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// PositionUpdate is one entry of a reorder batch.
type PositionUpdate struct {
	ID     string `json:"id"     validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=TODO IN_PROGRESS DONE"`
	Order  *int   `json:"order"  validate:"required,gte=0"`
}

// ReorderRequest defines the payload for POST /tasks/reorder.
type ReorderRequest struct {
	Updates []PositionUpdate `json:"updates" validate:"dive"`
}

// ToPositions converts a validated request into domain positions.
func (r ReorderRequest) ToPositions() []domain.TaskPosition {
	positions := make([]domain.TaskPosition, 0, len(r.Updates))
	for _, u := range r.Updates {
		positions = append(positions, domain.TaskPosition{
			ID:     uuid.MustParse(u.ID),
			Status: domain.TaskStatus(u.Status),
			Order:  *u.Order,
		})
	}
	return positions
}

// SuccessResponse acknowledges writes that return no entity.
type SuccessResponse struct {
	Success bool `json:"success"`
}
