package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"salespulse/pkg/contracts/domain"
)

// ExcludedDate is the known-bad export date removed from every load.
var ExcludedDate = time.Date(2025, time.February, 22, 0, 0, 0, 0, time.UTC)

// filterExcludedDate removes every record whose date component equals the
// excluded date. Order-preserving, no error conditions.
func filterExcludedDate(records []domain.OrderRecord) []domain.OrderRecord {
	kept := make([]domain.OrderRecord, 0, len(records))
	for _, r := range records {
		day := truncateToDay(r.OrderDate)
		if day.Equal(ExcludedDate) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// deduplicate retains exactly one record per identity key, preferring the
// first occurrence in input order. The key is the (order date, restaurant,
// dish, price) tuple restricted to columns actually present in the input
// schema; with none of the key columns present, every record passes through.
func deduplicate(records []domain.OrderRecord, columns domain.ColumnSet) []domain.OrderRecord {
	keyColumns := make([]string, 0, 4)
	for _, col := range []string{
		domain.ColOrderDate,
		domain.ColRestaurantName,
		domain.ColDishName,
		domain.ColPrice,
	} {
		if columns.Has(col) {
			keyColumns = append(keyColumns, col)
		}
	}
	if len(keyColumns) == 0 {
		return records
	}

	seen := make(map[string]struct{}, len(records))
	kept := make([]domain.OrderRecord, 0, len(records))

	for _, r := range records {
		key := identityKey(r, keyColumns)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept
}

// identityKey builds the composite dedup key from the present key columns.
func identityKey(r domain.OrderRecord, keyColumns []string) string {
	var b strings.Builder
	for _, col := range keyColumns {
		switch col {
		case domain.ColOrderDate:
			b.WriteString(r.OrderDate.Format("2006-01-02"))
		case domain.ColRestaurantName:
			b.WriteString(r.RestaurantName)
		case domain.ColDishName:
			b.WriteString(r.DishName)
		case domain.ColPrice:
			// NaN prices format identically and so deduplicate together,
			// matching duplicate-row semantics on missing values.
			b.WriteString(strconv.FormatFloat(r.Price, 'f', -1, 64))
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

// filterOutliers applies the three outlier filters in their fixed order:
// price, then rating, then rating count. Each filter is evaluated on the
// surviving set at the time it runs, so quartile statistics narrow
// progressively; the order is part of the contract.
func filterOutliers(records []domain.OrderRecord, columns domain.ColumnSet) []domain.OrderRecord {
	records = filterPrices(records, columns)
	records = filterRatings(records, columns)
	return filterRatingCounts(records, columns)
}

// filterPrices drops non-numeric and non-positive prices, then applies the
// IQR fence [Q1-1.5*IQR, Q3+1.5*IQR] computed over the survivors.
func filterPrices(records []domain.OrderRecord, columns domain.ColumnSet) []domain.OrderRecord {
	if !columns.Has(domain.ColPrice) {
		return records
	}

	kept := make([]domain.OrderRecord, 0, len(records))
	for _, r := range records {
		if math.IsNaN(r.Price) || r.Price <= 0 {
			continue
		}
		kept = append(kept, r)
	}

	prices := make([]float64, len(kept))
	for i, r := range kept {
		prices[i] = r.Price
	}

	q1, q3, ok := quartiles(prices)
	if !ok {
		return kept
	}
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	fenced := kept[:0]
	for _, r := range kept {
		if r.Price < lo || r.Price > hi {
			continue
		}
		fenced = append(fenced, r)
	}
	return fenced
}

// filterRatings drops records whose rating is present but outside [0, 5].
// Records with absent ratings always pass.
func filterRatings(records []domain.OrderRecord, columns domain.ColumnSet) []domain.OrderRecord {
	if !columns.Has(domain.ColRating) {
		return records
	}

	kept := make([]domain.OrderRecord, 0, len(records))
	for _, r := range records {
		if r.HasRating() && (r.Rating < 0 || r.Rating > 5) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// filterRatingCounts drops records with absent or negative rating counts,
// then trims the high tail above Q3+1.5*IQR when IQR > 0. No lower fence is
// applied: counts cannot be negative by construction at this point.
func filterRatingCounts(records []domain.OrderRecord, columns domain.ColumnSet) []domain.OrderRecord {
	if !columns.Has(domain.ColRatingCount) {
		return records
	}

	kept := make([]domain.OrderRecord, 0, len(records))
	for _, r := range records {
		if !r.HasRatingCount() || r.RatingCount < 0 {
			continue
		}
		kept = append(kept, r)
	}

	counts := make([]float64, len(kept))
	for i, r := range kept {
		counts[i] = r.RatingCount
	}

	q1, q3, ok := quartiles(counts)
	if !ok {
		return kept
	}
	iqr := q3 - q1
	if iqr <= 0 {
		return kept
	}
	hi := q3 + 1.5*iqr

	trimmed := kept[:0]
	for _, r := range kept {
		if r.RatingCount > hi {
			continue
		}
		trimmed = append(trimmed, r)
	}
	return trimmed
}

// truncateToDay normalizes a timestamp to midnight UTC of its date component.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
