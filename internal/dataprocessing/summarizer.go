package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"salespulse/pkg/contracts/domain"
)

// TopCitiesLimit is the number of cities kept in the top-cities view.
const TopCitiesLimit = 5

// KPIs is the headline metric block read by the presentation layer.
type KPIs struct {
	TotalSales        float64 `json:"total_sales"`
	TotalOrders       int     `json:"total_orders"`
	AverageRating     float64 `json:"average_rating"`
	RatingCount       int64   `json:"rating_count"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// PeriodSales is one row of a time-keyed sales sum view.
type PeriodSales struct {
	Period time.Time `json:"period"`
	Sales  float64   `json:"sales"`
}

// FoodTypeMonthlySales is one row of the monthly sales-by-food-type view,
// pivoted to one column per food type with zero fill.
type FoodTypeMonthlySales struct {
	Month  time.Time `json:"month"`
	Veg    float64   `json:"veg"`
	NonVeg float64   `json:"non_veg"`
}

// StateSales is one row of the sales-by-state view.
type StateSales struct {
	State string  `json:"state"`
	Sales float64 `json:"sales"`
}

// CitySales is one row of the top-cities view.
type CitySales struct {
	City  string  `json:"city"`
	Sales float64 `json:"sales"`
}

// QuarterSummary is one row of the quarterly performance view.
type QuarterSummary struct {
	Quarter       string  `json:"quarter"`
	TotalSales    float64 `json:"total_sales"`
	TotalOrders   int     `json:"total_orders"`
	AverageRating float64 `json:"average_rating"`
}

// Views bundles every summary view derived from one cleaned table.
type Views struct {
	Monthly         []PeriodSales          `json:"monthly_sales"`
	Daily           []PeriodSales          `json:"daily_sales"`
	Weekly          []PeriodSales          `json:"weekly_sales"`
	FoodTypeMonthly []FoodTypeMonthlySales `json:"foodtype_monthly_sales"`
	States          []StateSales           `json:"state_sales"`
	Quarters        []QuarterSummary       `json:"quarterly_summary"`
	TopCities       []CitySales            `json:"top_cities"`
}

// Summarizer derives grouped summary views from the cleaned table. Summaries
// are ephemeral: recomputed per request, never mutated in place, and carry no
// back-reference to source records.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		logger: logger.With(slog.String("component", "summarizer")),
	}
}

// KPIs computes the headline metrics over the cleaned table. The mean rating
// ignores absent ratings and is 0 when no ratings are present; the average
// order value is 0 when there are no orders.
func (s *Summarizer) KPIs(table *domain.CleanedTable) KPIs {
	k := KPIs{TotalOrders: len(table.Records)}

	var ratings []float64
	for _, r := range table.Records {
		k.TotalSales += r.Sales
		if r.HasRating() {
			ratings = append(ratings, r.Rating)
		}
		if r.HasRatingCount() {
			k.RatingCount += int64(r.RatingCount)
		}
	}

	if len(ratings) > 0 {
		k.AverageRating = stat.Mean(ratings, nil)
	}
	if k.TotalOrders > 0 {
		k.AverageOrderValue = k.TotalSales / float64(k.TotalOrders)
	}
	return k
}

// MonthlySales sums sales per month start, ascending chronologically.
func (s *Summarizer) MonthlySales(table *domain.CleanedTable) []PeriodSales {
	return s.periodSales(table, func(r domain.CleanedRecord) time.Time { return r.MonthStart })
}

// DailySales sums sales per day, ascending chronologically.
func (s *Summarizer) DailySales(table *domain.CleanedTable) []PeriodSales {
	return s.periodSales(table, func(r domain.CleanedRecord) time.Time { return r.Day })
}

// WeeklySales sums sales per ISO week start, ascending chronologically.
func (s *Summarizer) WeeklySales(table *domain.CleanedTable) []PeriodSales {
	return s.periodSales(table, func(r domain.CleanedRecord) time.Time { return r.WeekStart })
}

// periodSales groups sales sums by a time key.
func (s *Summarizer) periodSales(table *domain.CleanedTable, key func(domain.CleanedRecord) time.Time) []PeriodSales {
	sums := make(map[time.Time]float64)
	for _, r := range table.Records {
		sums[key(r)] += r.Sales
	}

	rows := make([]PeriodSales, 0, len(sums))
	for period, sales := range sums {
		rows = append(rows, PeriodSales{Period: period, Sales: sales})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period.Before(rows[j].Period) })
	return rows
}

// FoodTypeMonthlySales sums sales per (month, food type) and pivots the food
// type dimension into Veg / NonVeg columns with zero fill, ascending by month.
func (s *Summarizer) FoodTypeMonthlySales(table *domain.CleanedTable) []FoodTypeMonthlySales {
	type split struct{ veg, nonVeg float64 }
	sums := make(map[time.Time]*split)

	for _, r := range table.Records {
		row, ok := sums[r.MonthStart]
		if !ok {
			row = &split{}
			sums[r.MonthStart] = row
		}
		if r.FoodType == domain.FoodTypeNonVeg {
			row.nonVeg += r.Sales
		} else {
			row.veg += r.Sales
		}
	}

	rows := make([]FoodTypeMonthlySales, 0, len(sums))
	for month, sp := range sums {
		rows = append(rows, FoodTypeMonthlySales{Month: month, Veg: sp.veg, NonVeg: sp.nonVeg})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month.Before(rows[j].Month) })
	return rows
}

// StateSales sums sales per state, ascending by state name. An absent State
// column yields an empty view, not an error.
func (s *Summarizer) StateSales(table *domain.CleanedTable) []StateSales {
	if !table.Columns.Has(domain.ColState) {
		return []StateSales{}
	}

	sums := make(map[string]float64)
	for _, r := range table.Records {
		sums[r.State] += r.Sales
	}

	rows := make([]StateSales, 0, len(sums))
	for state, sales := range sums {
		rows = append(rows, StateSales{State: state, Sales: sales})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].State < rows[j].State })
	return rows
}

// QuarterlySummary reports total sales, order count and mean rating per
// quarter label, ascending by label. Absent ratings are excluded from means.
func (s *Summarizer) QuarterlySummary(table *domain.CleanedTable) []QuarterSummary {
	type acc struct {
		sales   float64
		orders  int
		ratings []float64
	}
	groups := make(map[string]*acc)

	for _, r := range table.Records {
		g, ok := groups[r.QuarterLabel]
		if !ok {
			g = &acc{}
			groups[r.QuarterLabel] = g
		}
		g.sales += r.Sales
		g.orders++
		if r.HasRating() {
			g.ratings = append(g.ratings, r.Rating)
		}
	}

	rows := make([]QuarterSummary, 0, len(groups))
	for quarter, g := range groups {
		row := QuarterSummary{
			Quarter:     quarter,
			TotalSales:  g.sales,
			TotalOrders: g.orders,
		}
		if len(g.ratings) > 0 {
			row.AverageRating = stat.Mean(g.ratings, nil)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Quarter < rows[j].Quarter })
	return rows
}

// TopCities returns the five cities with the highest summed sales, descending
// by sales. Ties break alphabetically to keep output deterministic. An absent
// City column yields an empty view.
func (s *Summarizer) TopCities(table *domain.CleanedTable) []CitySales {
	if !table.Columns.Has(domain.ColCity) {
		return []CitySales{}
	}

	sums := make(map[string]float64)
	for _, r := range table.Records {
		sums[r.City] += r.Sales
	}

	rows := make([]CitySales, 0, len(sums))
	for city, sales := range sums {
		rows = append(rows, CitySales{City: city, Sales: sales})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Sales != rows[j].Sales {
			return rows[i].Sales > rows[j].Sales
		}
		return rows[i].City < rows[j].City
	})

	if len(rows) > TopCitiesLimit {
		rows = rows[:TopCitiesLimit]
	}
	return rows
}

// AllViews computes every summary view against the same immutable snapshot.
// Views are independent, so they run concurrently.
func (s *Summarizer) AllViews(ctx context.Context, table *domain.CleanedTable) (*Views, error) {
	views := &Views{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { views.Monthly = s.MonthlySales(table); return nil })
	g.Go(func() error { views.Daily = s.DailySales(table); return nil })
	g.Go(func() error { views.Weekly = s.WeeklySales(table); return nil })
	g.Go(func() error { views.FoodTypeMonthly = s.FoodTypeMonthlySales(table); return nil })
	g.Go(func() error { views.States = s.StateSales(table); return nil })
	g.Go(func() error { views.Quarters = s.QuarterlySummary(table); return nil })
	g.Go(func() error { views.TopCities = s.TopCities(table); return nil })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "summary views computed",
		slog.Int("months", len(views.Monthly)),
		slog.Int("days", len(views.Daily)),
		slog.Int("weeks", len(views.Weekly)),
		slog.Int("states", len(views.States)),
		slog.Int("quarters", len(views.Quarters)),
		slog.Int("top_cities", len(views.TopCities)))

	return views, nil
}
