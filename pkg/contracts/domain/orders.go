// Package domain contains the shared data contracts for the sales analytics
// pipeline. Types here are plain data structures used across internal
// packages; they carry no behavior beyond simple accessors.
package domain

import (
	"math"
	"time"
)

// Column names exactly as they appear in the raw sales export.
const (
	ColOrderDate      = "Order Date"
	ColRestaurantName = "Restaurant Name"
	ColDishName       = "Dish Name"
	ColPrice          = "Price (INR)"
	ColRating         = "Rating"
	ColRatingCount    = "Rating Count"
	ColCategory       = "Category"
	ColCity           = "City"
	ColState          = "State"
)

// OrderDateLayout is the fixed day-month-2digit-year format used by the
// export's Order Date column. Rows whose dates do not match are dropped at
// parse time, never carried forward.
const OrderDateLayout = "02-01-06"

// FoodType is the heuristic Veg / Non Veg classification derived from the
// category and dish name text.
type FoodType string

const (
	FoodTypeVeg    FoodType = "Veg"
	FoodTypeNonVeg FoodType = "Non Veg"
)

// RawTable is the untyped row-oriented form of the export as read from disk.
// The first row of the source file becomes Headers; everything after it
// becomes Rows. No invariants hold yet - rows may be ragged or malformed.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ColumnSet records which of the canonical export columns were present in
// the input schema. Filters and summaries consult it so that a missing
// optional column degrades to a no-op or an empty view instead of an error.
type ColumnSet map[string]bool

// Has reports whether the named column existed in the input schema.
func (c ColumnSet) Has(name string) bool { return c[name] }

// OrderRecord is one parsed order line. OrderDate is always a valid calendar
// date. Price, Rating and RatingCount are NaN when the source cell was empty
// or non-numeric, mirroring coerce-to-numeric behavior.
type OrderRecord struct {
	OrderDate      time.Time `json:"order_date"`
	RestaurantName string    `json:"restaurant_name"`
	DishName       string    `json:"dish_name"`
	Price          float64   `json:"price"`
	Rating         float64   `json:"rating"`
	RatingCount    float64   `json:"rating_count"`
	Category       string    `json:"category"`
	City           string    `json:"city"`
	State          string    `json:"state"`
}

// HasRating reports whether the record carries a rating value.
func (r OrderRecord) HasRating() bool { return !math.IsNaN(r.Rating) }

// HasRatingCount reports whether the record carries a rating count value.
func (r OrderRecord) HasRatingCount() bool { return !math.IsNaN(r.RatingCount) }

// Dataset pairs parsed order records with the schema actually seen in the
// input file.
type Dataset struct {
	Records []OrderRecord
	Columns ColumnSet
}

// CleanedRecord is an OrderRecord that survived every cleaning stage, plus
// the derived presentation fields. After cleaning, Price > 0, Rating is NaN
// or within [0,5], and RatingCount is a non-negative value.
type CleanedRecord struct {
	OrderRecord

	Sales        float64   `json:"sales"`
	FoodType     FoodType  `json:"food_type"`
	Day          time.Time `json:"day"`
	WeekStart    time.Time `json:"week_start"`
	MonthStart   time.Time `json:"month_start"`
	QuarterLabel string    `json:"quarter_label"`
}

// CleanedTable is the canonical cleaned dataset produced by one pipeline run.
// It is immutable once published: summary views read it without mutation and
// may do so concurrently.
type CleanedTable struct {
	Records []CleanedRecord
	Columns ColumnSet

	// Fingerprint is the SHA-256 hex digest of the raw input bytes. The
	// table is a deterministic function of the input, so the fingerprint
	// identifies it for caching.
	Fingerprint string
}
