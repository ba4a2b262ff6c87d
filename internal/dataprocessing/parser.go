package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Parser converts the raw row table into typed order records. Parsing is
// pure and total: invalid numeric cells become NaN and rows with unparseable
// dates are dropped, never reported as errors.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger.With(slog.String("component", "parser")),
	}
}

// canonicalColumns is the full set of export columns the parser maps.
var canonicalColumns = []string{
	domain.ColOrderDate,
	domain.ColRestaurantName,
	domain.ColDishName,
	domain.ColPrice,
	domain.ColRating,
	domain.ColRatingCount,
	domain.ColCategory,
	domain.ColCity,
	domain.ColState,
}

// Parse maps the header row to canonical columns and coerces every data row
// into an OrderRecord. The Order Date column is the only one required to be
// present; rows whose date does not match the DD-MM-YY layout are dropped
// silently.
func (p *Parser) Parse(ctx context.Context, table domain.RawTable) (domain.Dataset, error) {
	columnIndex := make(map[string]int, len(canonicalColumns))
	for i, header := range table.Headers {
		name := strings.TrimSpace(header)
		for _, col := range canonicalColumns {
			if name == col {
				columnIndex[col] = i
				break
			}
		}
	}

	if _, ok := columnIndex[domain.ColOrderDate]; !ok {
		return domain.Dataset{}, apperrors.NewMissingColumnError(domain.ColOrderDate)
	}

	columns := make(domain.ColumnSet, len(columnIndex))
	for col := range columnIndex {
		columns[col] = true
	}

	cell := func(row []string, col string) string {
		idx, ok := columnIndex[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]domain.OrderRecord, 0, len(table.Rows))
	droppedDates := 0

	for _, row := range table.Rows {
		orderDate, err := time.Parse(domain.OrderDateLayout, cell(row, domain.ColOrderDate))
		if err != nil {
			droppedDates++
			continue
		}

		records = append(records, domain.OrderRecord{
			OrderDate:      orderDate,
			RestaurantName: cell(row, domain.ColRestaurantName),
			DishName:       cell(row, domain.ColDishName),
			Price:          parseNumeric(cell(row, domain.ColPrice)),
			Rating:         parseNumeric(cell(row, domain.ColRating)),
			RatingCount:    parseNumeric(cell(row, domain.ColRatingCount)),
			Category:       cell(row, domain.ColCategory),
			City:           cell(row, domain.ColCity),
			State:          cell(row, domain.ColState),
		})
	}

	p.logger.InfoContext(ctx, "parsed raw table",
		slog.Int("rows_in", len(table.Rows)),
		slog.Int("records", len(records)),
		slog.Int("dropped_invalid_dates", droppedDates),
		slog.Int("columns_mapped", len(columnIndex)))

	return domain.Dataset{Records: records, Columns: columns}, nil
}

// parseNumeric coerces a cell to a float, returning NaN when the cell is
// empty or not numeric. Thousands separators are tolerated.
func parseNumeric(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
