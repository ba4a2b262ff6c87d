package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"salespulse/pkg/contracts/domain"
)

// nonVegKeywords is the fixed keyword set for food-type classification.
// Presence of any keyword as a substring of the lowercased category + dish
// name classifies the record Non Veg.
var nonVegKeywords = []string{
	"chicken",
	"mutton",
	"egg",
	"fish",
	"prawn",
	"meat",
	"non veg",
	"non-veg",
	"bacon",
}

// ClassifyFoodType applies the keyword heuristic to a record's category and
// dish name. It is a heuristic, not authoritative: "eggplant" matches "egg"
// and classifies Non Veg. That is documented behavior, not a defect.
func ClassifyFoodType(category, dishName string) domain.FoodType {
	text := strings.ToLower(category + " " + dishName)
	for _, kw := range nonVegKeywords {
		if strings.Contains(text, kw) {
			return domain.FoodTypeNonVeg
		}
	}
	return domain.FoodTypeVeg
}

// WeekStart returns the Monday beginning the ISO-8601 week containing t,
// at midnight UTC. Monday anchoring is fixed to keep results reproducible.
func WeekStart(t time.Time) time.Time {
	day := truncateToDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of the calendar month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// QuarterLabel formats the calendar-year quarter of t as "YYYYQn".
func QuarterLabel(t time.Time) string {
	quarter := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%dQ%d", t.Year(), quarter)
}

// enrich derives the presentation fields for every surviving record. Pure
// and total: every field is derivable from a valid order date.
func enrich(records []domain.OrderRecord) []domain.CleanedRecord {
	cleaned := make([]domain.CleanedRecord, len(records))
	for i, r := range records {
		cleaned[i] = domain.CleanedRecord{
			OrderRecord:  r,
			Sales:        r.Price,
			FoodType:     ClassifyFoodType(r.Category, r.DishName),
			Day:          truncateToDay(r.OrderDate),
			WeekStart:    WeekStart(r.OrderDate),
			MonthStart:   MonthStart(r.OrderDate),
			QuarterLabel: QuarterLabel(r.OrderDate),
		}
	}
	return cleaned
}
