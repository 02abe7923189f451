package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrScoreOverflow is returned when a delta would take a score outside the int64 range
var ErrScoreOverflow = errors.New("score overflow")

// User represents a quiz player with their cumulative and per-category scores
type User struct {
	ID              int64     `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Score           int64     `db:"score" json:"score"`
	Badges          Badges    `db:"badges" json:"badges"`
	CapitalScore    int64     `db:"capital_score" json:"capitalScore"`
	FlagsScore      int64     `db:"flags_score" json:"flagsScore"`
	PopulationScore int64     `db:"population_score" json:"populationScore"`
	AreaScore       int64     `db:"area_score" json:"areaScore"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// CategoryScore returns the stored score for a known category
func (u *User) CategoryScore(category Category) int64 {
	switch category {
	case CategoryCapital:
		return u.CapitalScore
	case CategoryFlag:
		return u.FlagsScore
	case CategoryPopulation:
		return u.PopulationScore
	case CategoryArea:
		return u.AreaScore
	}
	return 0
}

// AddScore adds delta to the total score. The score is unchanged on overflow.
func (u *User) AddScore(delta int64) error {
	sum, err := checkedAdd(u.Score, delta)
	if err != nil {
		return err
	}
	u.Score = sum
	return nil
}

// AddCategoryScore adds delta to a known category and reports whether a
// category counter was touched. The counter is unchanged on overflow.
func (u *User) AddCategoryScore(category Category, delta int64) (bool, error) {
	var counter *int64
	switch category {
	case CategoryCapital:
		counter = &u.CapitalScore
	case CategoryFlag:
		counter = &u.FlagsScore
	case CategoryPopulation:
		counter = &u.PopulationScore
	case CategoryArea:
		counter = &u.AreaScore
	default:
		return false, nil
	}

	sum, err := checkedAdd(*counter, delta)
	if err != nil {
		return false, err
	}
	*counter = sum
	return true, nil
}

func checkedAdd(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return a, ErrScoreOverflow
	}
	return sum, nil
}

// Badges is an insertion-ordered set of badge names.
// It serializes as a JSON array, never as null.
type Badges []string

// Has reports whether the badge is already earned
func (b Badges) Has(name string) bool {
	for _, badge := range b {
		if badge == name {
			return true
		}
	}
	return false
}

// Add appends the badge if absent and reports whether it was new
func (b *Badges) Add(name string) bool {
	if b.Has(name) {
		return false
	}
	*b = append(*b, name)
	return true
}

// MarshalJSON keeps an empty set encoded as []
func (b Badges) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(b))
}
