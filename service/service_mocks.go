package service

import (
	"context"

	"mondesavoir/models"

	"github.com/stretchr/testify/mock"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockScoringService is a mock implementation of ScoringService
type MockScoringService struct {
	mock.Mock
}

func (m *MockScoringService) ApplyDelta(ctx context.Context, userID int64, delta int64, category string) (*models.ScoreUpdate, error) {
	args := m.Called(ctx, userID, delta, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreUpdate), args.Error(1)
}

// MockQuizService is a mock implementation of QuizService
type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) SubmitAnswer(ctx context.Context, userID int64, country, answer string) (*models.QuizResult, error) {
	args := m.Called(ctx, userID, country, answer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizResult), args.Error(1)
}
