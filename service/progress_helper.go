package service

import (
	"context"
	"fmt"

	"mondesavoir/events"
	"mondesavoir/models"

	log "github.com/sirupsen/logrus"
)

// Progress sources carried on ScoreChangedEvent
const (
	SourceScore = "score"
	SourceQuiz  = "quiz"
)

// progressChange describes a mutation already applied to an in-memory user
type progressChange struct {
	OldScore int64
	Delta    int64
	Category string
	Source   string
	Awarded  []string
}

// recordProgress persists the user's score sheet and queues the matching events.
// This is the single entry point for all score and badge changes.
func recordProgress(ctx context.Context, uow UnitOfWork, user *models.User, change progressChange) error {
	if err := uow.UserRepository().UpdateProgress(ctx, user); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	// Flushed after the transaction commits
	uow.EventBus().Publish(events.ScoreChangedEvent{
		UserID:   user.ID,
		OldScore: change.OldScore,
		NewScore: user.Score,
		Delta:    change.Delta,
		Category: change.Category,
		Source:   change.Source,
	})
	for _, badge := range change.Awarded {
		uow.EventBus().Publish(events.BadgeAwardedEvent{
			UserID: user.ID,
			Badge:  badge,
		})
	}

	return nil
}

// refreshCachedUser writes the committed user through to the cache. If the
// write fails the entry is dropped so readers fall back to the database.
func refreshCachedUser(ctx context.Context, cache UserCache, user *models.User) {
	err := cache.Set(ctx, user)
	if err == nil {
		return
	}
	log.WithError(err).WithField("userID", user.ID).Warn("Failed to refresh cached user")

	if err := cache.Delete(ctx, user.ID); err != nil {
		log.WithError(err).WithField("userID", user.ID).Warn("Failed to evict cached user")
	}
}
