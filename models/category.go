package models

import "strings"

// Category identifies a quiz subdomain with its own score counter
type Category string

const (
	CategoryCapital    Category = "capital"
	CategoryFlag       Category = "flag"
	CategoryPopulation Category = "population"
	CategoryArea       Category = "area"
)

// Categories lists every known category
var Categories = []Category{
	CategoryCapital,
	CategoryFlag,
	CategoryPopulation,
	CategoryArea,
}

// ParseCategory maps a client-supplied tag onto a known category.
// Matching ignores case and surrounding whitespace.
func ParseCategory(tag string) (Category, bool) {
	candidate := Category(strings.ToLower(strings.TrimSpace(tag)))
	for _, category := range Categories {
		if category == candidate {
			return category, true
		}
	}
	return "", false
}
