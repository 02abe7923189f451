package service

import "mondesavoir/models"

// BadgeThreshold awards Name once a score reaches Score
type BadgeThreshold struct {
	Score int64
	Name  string
}

// BadgeThresholds is ordered by ascending score
var BadgeThresholds = []BadgeThreshold{
	{Score: 10, Name: "Novice"},
	{Score: 25, Name: "Apprenti"},
	{Score: 50, Name: "Connaisseur"},
	{Score: 100, Name: "Expert"},
	{Score: 250, Name: "Incollable"},
	{Score: 1000, Name: "Omniscient"},
}

// AwardThresholdBadges adds every threshold badge reached by score that the
// set does not hold yet, returning the newly added names. Badges are never
// removed, even when score has dropped below a threshold.
func AwardThresholdBadges(badges *models.Badges, score int64) []string {
	var awarded []string
	for _, threshold := range BadgeThresholds {
		if score < threshold.Score {
			break
		}
		if badges.Add(threshold.Name) {
			awarded = append(awarded, threshold.Name)
		}
	}
	return awarded
}
