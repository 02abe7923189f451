package models

// ScoreUpdate is the outcome of applying a delta to a user
type ScoreUpdate struct {
	Score         int64     `json:"score"`
	Badges        Badges    `json:"badges"`
	Category      *Category `json:"category,omitempty"`
	CategoryScore *int64    `json:"categoryScore,omitempty"`
}

// QuizResult is the outcome of answering a quiz question
type QuizResult struct {
	Correct   bool   `json:"correct"`
	NewScore  *int64 `json:"newScore,omitempty"`
	NewBadges Badges `json:"newBadges,omitempty"`
}
