package service

import "strings"

// capitals is the answer key for the capital-city quiz
var capitals = map[string]string{
	"France":  "Paris",
	"Germany": "Berlin",
	"Brazil":  "Brasilia",
	"Japan":   "Tokyo",
	"Canada":  "Ottawa",
	"Italy":   "Rome",
	"Egypt":   "Cairo",
}

// CheckCapital reports whether answer names the capital of country.
// Countries outside the answer key are always incorrect.
func CheckCapital(country, answer string) bool {
	expected, ok := capitals[country]
	if !ok {
		return false
	}
	return strings.EqualFold(expected, strings.TrimSpace(answer))
}
