package constants

import (
	"strings"
)

type Category string

const (
	Grocery       Category = "Grocery"
	FoodAndDrink  Category = "Food & Drink"
	Fuel          Category = "Fuel"
	Clothing      Category = "Clothing"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Technology    Category = "Technology"
	Bill          Category = "Bill"
	Other         Category = "Other"
	Unknown       Category = "Unknown"
)

var allCategories = []Category{
	Grocery,
	FoodAndDrink,
	Fuel,
	Clothing,
	Shopping,
	Entertainment,
	Technology,
	Bill,
	Other,
	Unknown,
}

// Canonicalize maps a free-form category label onto a known category.
// Empty or unrecognized labels resolve to Unknown with ok=false.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Unknown, false
	}

	synonyms := map[string]Category{
		"market":      Grocery,
		"supermarket": Grocery,
		"food":        FoodAndDrink,
		"cafe":        FoodAndDrink,
		"restaurant":  FoodAndDrink,
		"gas":         Fuel,
		"petrol":      Fuel,
		"akaryakıt":   Fuel,
		"giyim":       Clothing,
		"utilities":   Bill,
		"fatura":      Bill,
		"electronics": Technology,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Unknown, false
}
