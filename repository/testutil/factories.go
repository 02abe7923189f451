package testutil

import (
	"time"

	"mondesavoir/models"
)

// CreateTestUser creates a test user with an empty score sheet
func CreateTestUser(id int64, username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:        id,
		Username:  username,
		Badges:    models.Badges{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithScore creates a test user with a given score and badges
func CreateTestUserWithScore(id int64, username string, score int64, badges ...string) *models.User {
	user := CreateTestUser(id, username)
	user.Score = score
	for _, b := range badges {
		user.Badges.Add(b)
	}
	return user
}
