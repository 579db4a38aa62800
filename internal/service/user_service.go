package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
)

// UserService registers board owners and checks their credentials.
type UserService interface {
	// Register validates the input, hashes the password and stores a new
	// user. Returns store.ErrEmailExists when the email is taken.
	Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error)

	// Authenticate returns the user whose email and password match, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore store.UserStore, hasher auth.PasswordHasher, logger *slog.Logger) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		logger:    logger.With("component", "user_service"),
	}
}

var _ UserService = (*UserServiceImpl)(nil)

// Register implements UserService.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	email, password, firstName, lastName string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, NewUserServiceError("register", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register existing email")
		} else {
			log.Error("failed to save user", "error", err)
		}
		return nil, NewUserServiceError("register", err)
	}

	log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user by email", "error", err)
		return nil, NewUserServiceError("authenticate", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser implements UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, NewUserServiceError("get", err)
	}
	return user, nil
}
