package service

import (
	"context"

	"mondesavoir/events"
	"mondesavoir/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil when no row matches
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByIDForUpdate retrieves a user by ID and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username, returning nil when no row matches
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetAll returns all users ordered by ID
	GetAll(ctx context.Context) ([]*models.User, error)

	// Create inserts a user with zero scores and no badges
	Create(ctx context.Context, username string) (*models.User, error)

	// UpdateProgress persists score, badges and category scores in a single statement
	UpdateProgress(ctx context.Context, user *models.User) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UserCache defines a best-effort cache of user records keyed by ID
type UserCache interface {
	// Get returns the cached user, or nil when absent
	Get(ctx context.Context, id int64) (*models.User, error)

	// Set stores the user unless the cached copy has the same or a later UpdatedAt
	Set(ctx context.Context, user *models.User) error

	// Delete evicts the user
	Delete(ctx context.Context, id int64) error
}

// UserService defines the interface for user operations
type UserService interface {
	// CreateUser registers a new user with an empty score sheet
	CreateUser(ctx context.Context, username string) (*models.User, error)

	// GetUser returns a single user
	GetUser(ctx context.Context, id int64) (*models.User, error)

	// ListUsers returns every user
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// ScoringService defines the interface for score bookkeeping
type ScoringService interface {
	// ApplyDelta adds delta to the user's score, awards threshold badges and
	// updates the category score when category names a known category
	ApplyDelta(ctx context.Context, userID int64, delta int64, category string) (*models.ScoreUpdate, error)
}

// QuizService defines the interface for answering quiz questions
type QuizService interface {
	// SubmitAnswer checks the answer for a country and rewards a correct one
	SubmitAnswer(ctx context.Context, userID int64, country, answer string) (*models.QuizResult, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
