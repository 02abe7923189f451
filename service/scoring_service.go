package service

import (
	"context"
	"fmt"
	"strings"

	"mondesavoir/models"

	log "github.com/sirupsen/logrus"
)

type scoringService struct {
	uowFactory UnitOfWorkFactory
	cache      UserCache
}

// NewScoringService creates a new scoring service
func NewScoringService(uowFactory UnitOfWorkFactory, cache UserCache) ScoringService {
	return &scoringService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// ApplyDelta adds delta to the user's score inside a row-locked transaction.
// Unknown categories are ignored rather than rejected.
func (s *scoringService) ApplyDelta(ctx context.Context, userID int64, delta int64, category string) (*models.ScoreUpdate, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Lock the row so concurrent deltas serialize instead of losing updates
	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user", ID: userID}
	}

	oldScore := user.Score
	if err := user.AddScore(delta); err != nil {
		return nil, overflowError(err)
	}

	result := &models.ScoreUpdate{}
	change := progressChange{
		OldScore: oldScore,
		Delta:    delta,
		Source:   SourceScore,
	}

	if parsed, ok := models.ParseCategory(category); ok {
		if _, err := user.AddCategoryScore(parsed, delta); err != nil {
			return nil, overflowError(err)
		}
		categoryScore := user.CategoryScore(parsed)
		result.Category = &parsed
		result.CategoryScore = &categoryScore
		change.Category = string(parsed)
	} else if strings.TrimSpace(category) != "" {
		log.WithFields(log.Fields{
			"userID":   userID,
			"category": category,
		}).Debug("Ignoring unknown score category")
	}

	awarded := AwardThresholdBadges(&user.Badges, user.Score)
	change.Awarded = awarded

	if err := recordProgress(ctx, uow, user, change); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	refreshCachedUser(ctx, s.cache, user)

	result.Score = user.Score
	result.Badges = user.Badges

	log.WithFields(log.Fields{
		"userID":   userID,
		"oldScore": oldScore,
		"newScore": user.Score,
		"awarded":  awarded,
	}).Info("Score updated")

	return result, nil
}
