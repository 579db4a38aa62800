package service

import (
	"errors"
	"fmt"
)

// Service errors. Callers check them with errors.Is; the API layer maps
// them to HTTP status codes.
var (
	// ErrNotOwned indicates that at least one task in a reorder batch does
	// not exist or belongs to another user. The API maps it to 403.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password. The two cases are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ServiceError records the service and operation that failed.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError wraps err for a failed task operation.
func NewTaskServiceError(op string, err error) *ServiceError {
	return &ServiceError{Service: "task", Op: op, Err: err}
}

// NewUserServiceError wraps err for a failed user operation.
func NewUserServiceError(op string, err error) *ServiceError {
	return &ServiceError{Service: "user", Op: op, Err: err}
}
