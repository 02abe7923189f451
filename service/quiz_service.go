package service

import (
	"context"
	"fmt"
	"strings"

	"mondesavoir/models"

	log "github.com/sirupsen/logrus"
)

type quizService struct {
	uowFactory UnitOfWorkFactory
	cache      UserCache
}

// NewQuizService creates a new quiz service
func NewQuizService(uowFactory UnitOfWorkFactory, cache UserCache) QuizService {
	return &quizService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// SubmitAnswer checks the capital given for country. A correct answer is worth
// one point, the country itself as a badge and any threshold badge reached.
func (s *quizService) SubmitAnswer(ctx context.Context, userID int64, country, answer string) (*models.QuizResult, error) {
	// Only absent values are missing; blank ones are graded like any other answer
	if userID <= 0 || country == "" || answer == "" {
		return nil, NewValidationError("userId, country and answer are required")
	}
	country = strings.TrimSpace(country)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &AuthError{Message: "user is not authenticated or does not exist"}
	}

	if !CheckCapital(country, answer) {
		log.WithFields(log.Fields{
			"userID":  userID,
			"country": country,
		}).Debug("Incorrect quiz answer")
		return &models.QuizResult{Correct: false}, nil
	}

	oldScore := user.Score
	if err := user.AddScore(1); err != nil {
		return nil, overflowError(err)
	}

	var awarded []string
	if user.Badges.Add(country) {
		awarded = append(awarded, country)
	}
	awarded = append(awarded, AwardThresholdBadges(&user.Badges, user.Score)...)

	change := progressChange{
		OldScore: oldScore,
		Delta:    1,
		Source:   SourceQuiz,
		Awarded:  awarded,
	}
	if err := recordProgress(ctx, uow, user, change); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	refreshCachedUser(ctx, s.cache, user)

	log.WithFields(log.Fields{
		"userID":   userID,
		"country":  country,
		"newScore": user.Score,
		"awarded":  awarded,
	}).Info("Correct quiz answer")

	newScore := user.Score
	return &models.QuizResult{
		Correct:   true,
		NewScore:  &newScore,
		NewBadges: user.Badges,
	}, nil
}
