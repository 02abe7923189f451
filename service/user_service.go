package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mondesavoir/events"
	"mondesavoir/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	cache      UserCache
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, cache UserCache) UserService {
	return &userService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// CreateUser registers a new user with an empty score sheet
func (s *userService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("username %q is already taken", username)
	}

	// The unique constraint still catches a concurrent insert of the same name
	user, err := uow.UserRepository().Create(ctx, username)
	if errors.Is(err, ErrDuplicateUsername) {
		return nil, NewValidationError("username %q is already taken", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:   user.ID,
		Username: user.Username,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": user.Username,
	}).Info("User created")

	return user, nil
}

// GetUser returns a single user, consulting the cache first
func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		log.WithError(err).WithField("userID", id).Warn("Failed to read cached user")
	}
	if cached != nil {
		return cached, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // Read-only, nothing to commit

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}

	if err := s.cache.Set(ctx, user); err != nil {
		log.WithError(err).WithField("userID", id).Warn("Failed to cache user")
	}

	return user, nil
}

// ListUsers returns every user
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // Read-only, nothing to commit

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	if users == nil {
		users = []*models.User{}
	}

	return users, nil
}
