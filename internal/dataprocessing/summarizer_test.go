package dataprocessing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/pkg/contracts/domain"
)

// cleaned builds a cleaned record the way the enricher would.
func cleaned(d time.Time, city, state string, sales, rating float64) domain.CleanedRecord {
	r := domain.OrderRecord{
		OrderDate:   d,
		Price:       sales,
		Rating:      rating,
		RatingCount: 10,
		City:        city,
		State:       state,
	}
	return domain.CleanedRecord{
		OrderRecord:  r,
		Sales:        sales,
		FoodType:     domain.FoodTypeVeg,
		Day:          d,
		WeekStart:    WeekStart(d),
		MonthStart:   MonthStart(d),
		QuarterLabel: QuarterLabel(d),
	}
}

func cleanedTable(records ...domain.CleanedRecord) *domain.CleanedTable {
	return &domain.CleanedTable{Records: records, Columns: allColumns()}
}

func TestSummarizer_KPIs(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 1, 15), "Bengaluru", "Karnataka", 100, 4.0),
		cleaned(day(2025, 1, 16), "Mumbai", "Maharashtra", 200, 5.0),
		cleaned(day(2025, 1, 17), "Chennai", "Tamil Nadu", 300, math.NaN()),
	)

	k := s.KPIs(table)
	assert.Equal(t, 600.0, k.TotalSales)
	assert.Equal(t, 3, k.TotalOrders)
	assert.InDelta(t, 4.5, k.AverageRating, 1e-9) // NaN rating excluded from mean
	assert.Equal(t, int64(30), k.RatingCount)
	assert.InDelta(t, 200.0, k.AverageOrderValue, 1e-9)
}

func TestSummarizer_KPIs_Empty(t *testing.T) {
	s := NewSummarizer(nil)
	k := s.KPIs(cleanedTable())

	assert.Zero(t, k.TotalSales)
	assert.Zero(t, k.TotalOrders)
	assert.Zero(t, k.AverageRating)
	assert.Zero(t, k.AverageOrderValue)
}

func TestSummarizer_MonthlySales(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 2, 10), "A", "S", 50, 4),
		cleaned(day(2025, 1, 15), "A", "S", 100, 4),
		cleaned(day(2025, 1, 20), "A", "S", 150, 4),
	)

	rows := s.MonthlySales(table)
	require.Len(t, rows, 2)
	assert.Equal(t, day(2025, 1, 1), rows[0].Period) // ascending chronological
	assert.Equal(t, 250.0, rows[0].Sales)
	assert.Equal(t, day(2025, 2, 1), rows[1].Period)
	assert.Equal(t, 50.0, rows[1].Sales)
}

func TestSummarizer_WeeklySales_GroupsByWeekStart(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 1, 13), "A", "S", 10, 4), // Monday
		cleaned(day(2025, 1, 19), "A", "S", 20, 4), // Sunday, same ISO week
		cleaned(day(2025, 1, 20), "A", "S", 30, 4), // next Monday
	)

	rows := s.WeeklySales(table)
	require.Len(t, rows, 2)
	assert.Equal(t, day(2025, 1, 13), rows[0].Period)
	assert.Equal(t, 30.0, rows[0].Sales)
	assert.Equal(t, day(2025, 1, 20), rows[1].Period)
}

func TestSummarizer_FoodTypeMonthlySales_PivotsWithZeroFill(t *testing.T) {
	s := NewSummarizer(nil)

	veg := cleaned(day(2025, 1, 15), "A", "S", 100, 4)
	nonVeg := cleaned(day(2025, 1, 16), "A", "S", 250, 4)
	nonVeg.FoodType = domain.FoodTypeNonVeg
	vegOnlyMonth := cleaned(day(2025, 2, 1), "A", "S", 80, 4)

	rows := s.FoodTypeMonthlySales(cleanedTable(veg, nonVeg, vegOnlyMonth))
	require.Len(t, rows, 2)

	assert.Equal(t, day(2025, 1, 1), rows[0].Month)
	assert.Equal(t, 100.0, rows[0].Veg)
	assert.Equal(t, 250.0, rows[0].NonVeg)

	// Month with no non-veg sales fills with zero rather than omitting.
	assert.Equal(t, day(2025, 2, 1), rows[1].Month)
	assert.Equal(t, 80.0, rows[1].Veg)
	assert.Equal(t, 0.0, rows[1].NonVeg)
}

func TestSummarizer_StateSales(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 1, 15), "Mumbai", "Maharashtra", 100, 4),
		cleaned(day(2025, 1, 16), "Pune", "Maharashtra", 50, 4),
		cleaned(day(2025, 1, 17), "Bengaluru", "Karnataka", 200, 4),
	)

	rows := s.StateSales(table)
	require.Len(t, rows, 2)
	assert.Equal(t, StateSales{State: "Karnataka", Sales: 200}, rows[0])
	assert.Equal(t, StateSales{State: "Maharashtra", Sales: 150}, rows[1])
}

func TestSummarizer_StateSales_MissingColumn(t *testing.T) {
	s := NewSummarizer(nil)

	table := &domain.CleanedTable{
		Records: []domain.CleanedRecord{cleaned(day(2025, 1, 15), "Mumbai", "", 100, 4)},
		Columns: domain.ColumnSet{domain.ColOrderDate: true},
	}

	assert.Empty(t, s.StateSales(table))
	assert.Empty(t, s.TopCities(table))
}

func TestSummarizer_QuarterlySummary(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 1, 15), "A", "S", 100, 4.0),
		cleaned(day(2025, 2, 15), "A", "S", 200, math.NaN()),
		cleaned(day(2025, 4, 15), "A", "S", 300, 5.0),
	)

	rows := s.QuarterlySummary(table)
	require.Len(t, rows, 2)

	q1 := rows[0]
	assert.Equal(t, "2025Q1", q1.Quarter)
	assert.Equal(t, 300.0, q1.TotalSales)
	assert.Equal(t, 2, q1.TotalOrders)
	assert.InDelta(t, 4.0, q1.AverageRating, 1e-9) // absent rating ignored

	q2 := rows[1]
	assert.Equal(t, "2025Q2", q2.Quarter)
	assert.Equal(t, 300.0, q2.TotalSales)
	assert.Equal(t, 1, q2.TotalOrders)
}

func TestSummarizer_TopCities(t *testing.T) {
	s := NewSummarizer(nil)

	// Scenario F: six distinct cities; the view returns exactly five,
	// descending by summed sales, sixth city absent.
	table := cleanedTable(
		cleaned(day(2025, 1, 15), "Bengaluru", "Karnataka", 600, 4),
		cleaned(day(2025, 1, 15), "Mumbai", "Maharashtra", 500, 4),
		cleaned(day(2025, 1, 15), "Chennai", "Tamil Nadu", 400, 4),
		cleaned(day(2025, 1, 15), "Delhi", "Delhi", 300, 4),
		cleaned(day(2025, 1, 15), "Hyderabad", "Telangana", 200, 4),
		cleaned(day(2025, 1, 15), "Kochi", "Kerala", 100, 4),
	)

	rows := s.TopCities(table)
	require.Len(t, rows, TopCitiesLimit)

	assert.Equal(t, "Bengaluru", rows[0].City)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Sales, rows[i].Sales)
		assert.NotEqual(t, "Kochi", rows[i].City)
	}
}

func TestSummarizer_AggregationConsistency(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 1, 15), "Bengaluru", "Karnataka", 123, 4),
		cleaned(day(2025, 2, 16), "Mumbai", "Maharashtra", 456, 4),
		cleaned(day(2025, 4, 17), "Chennai", "Tamil Nadu", 789, 4),
	)

	k := s.KPIs(table)

	var monthlyTotal float64
	for _, row := range s.MonthlySales(table) {
		monthlyTotal += row.Sales
	}
	assert.InDelta(t, k.TotalSales, monthlyTotal, 1e-9)

	var stateTotal float64
	for _, row := range s.StateSales(table) {
		stateTotal += row.Sales
	}
	assert.InDelta(t, k.TotalSales, stateTotal, 1e-9)

	var quarterOrders int
	var quarterSales float64
	for _, row := range s.QuarterlySummary(table) {
		quarterOrders += row.TotalOrders
		quarterSales += row.TotalSales
	}
	assert.Equal(t, k.TotalOrders, quarterOrders)
	assert.InDelta(t, k.TotalSales, quarterSales, 1e-9)
}

func TestSummarizer_AllViews(t *testing.T) {
	s := NewSummarizer(nil)

	table := cleanedTable(
		cleaned(day(2025, 1, 15), "Bengaluru", "Karnataka", 100, 4),
		cleaned(day(2025, 2, 16), "Mumbai", "Maharashtra", 200, 4),
	)

	views, err := s.AllViews(context.Background(), table)
	require.NoError(t, err)

	assert.Len(t, views.Monthly, 2)
	assert.Len(t, views.Daily, 2)
	assert.Len(t, views.Weekly, 2)
	assert.Len(t, views.FoodTypeMonthly, 2)
	assert.Len(t, views.States, 2)
	assert.Len(t, views.Quarters, 1)
	assert.Len(t, views.TopCities, 2)
}
