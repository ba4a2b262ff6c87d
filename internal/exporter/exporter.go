// Package exporter writes cleaned data and summary views to report files.
// A run produces the cleaned table as CSV, one CSV per summary view, a JSON
// summary document, and a multi-sheet Excel workbook.
package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Report file names within the output directory.
const (
	FileCleaned          = "cleaned.csv"
	FileMonthlySales     = "monthly_sales.csv"
	FileDailySales       = "daily_sales.csv"
	FileWeeklySales      = "weekly_sales.csv"
	FileFoodTypeMonthly  = "foodtype_monthly.csv"
	FileStateSales       = "state_sales.csv"
	FileQuarterlySummary = "quarterly_summary.csv"
	FileTopCities        = "top_cities.csv"
	FileSummaryJSON      = "summary.json"
	FileWorkbook         = "report.xlsx"
)

const dayLayout = "2006-01-02"

// Summary is the JSON report document.
type Summary struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Fingerprint string                `json:"fingerprint"`
	Records     int                   `json:"records"`
	KPIs        dataprocessing.KPIs   `json:"kpis"`
	Views       *dataprocessing.Views `json:"views"`
}

// Exporter writes report artifacts for one cleaning run.
type Exporter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates an exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		logger: logger.With(slog.String("component", "exporter")),
		now:    time.Now,
	}
}

// WriteAll writes every report artifact into dir, creating it if needed.
func (e *Exporter) WriteAll(ctx context.Context, dir string, table *domain.CleanedTable, views *dataprocessing.Views, kpis dataprocessing.KPIs) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewStorageError("create reports directory", err).
			WithContext("dir", dir)
	}

	if err := e.writeCleaned(dir, table); err != nil {
		return err
	}
	if err := e.writeViews(dir, views); err != nil {
		return err
	}
	if err := e.writeSummaryJSON(dir, table, views, kpis); err != nil {
		return err
	}
	if err := e.writeWorkbook(dir, views, kpis); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "reports written",
		slog.String("dir", dir),
		slog.Int("records", len(table.Records)))
	return nil
}

func (e *Exporter) writeCleaned(dir string, table *domain.CleanedTable) error {
	header := []string{
		domain.ColOrderDate, domain.ColRestaurantName, domain.ColDishName,
		domain.ColPrice, domain.ColRating, domain.ColRatingCount,
		domain.ColCategory, domain.ColCity, domain.ColState,
		"Food Type", "Week Start", "Month Start", "Quarter",
	}

	rows := make([][]string, 0, len(table.Records))
	for _, r := range table.Records {
		rows = append(rows, []string{
			r.Day.Format(dayLayout),
			r.RestaurantName,
			r.DishName,
			formatFloat(r.Price),
			formatFloat(r.Rating),
			formatFloat(r.RatingCount),
			r.Category,
			r.City,
			r.State,
			string(r.FoodType),
			r.WeekStart.Format(dayLayout),
			r.MonthStart.Format(dayLayout),
			r.QuarterLabel,
		})
	}

	return e.writeCSV(filepath.Join(dir, FileCleaned), header, rows)
}

func (e *Exporter) writeViews(dir string, views *dataprocessing.Views) error {
	writes := []struct {
		file   string
		header []string
		rows   [][]string
	}{
		{FileMonthlySales, []string{"Month", "Sales"}, periodRows(views.Monthly)},
		{FileDailySales, []string{"Day", "Sales"}, periodRows(views.Daily)},
		{FileWeeklySales, []string{"Week Start", "Sales"}, periodRows(views.Weekly)},
		{FileFoodTypeMonthly, []string{"Month", "Veg", "Non Veg"}, foodTypeRows(views.FoodTypeMonthly)},
		{FileStateSales, []string{"State", "Sales"}, stateRows(views.States)},
		{FileQuarterlySummary, []string{"Quarter", "Total Sales", "Total Orders", "Average Rating"}, quarterRows(views.Quarters)},
		{FileTopCities, []string{"City", "Sales"}, cityRows(views.TopCities)},
	}

	for _, w := range writes {
		if err := e.writeCSV(filepath.Join(dir, w.file), w.header, w.rows); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeSummaryJSON(dir string, table *domain.CleanedTable, views *dataprocessing.Views, kpis dataprocessing.KPIs) error {
	doc := Summary{
		GeneratedAt: e.now().UTC(),
		Fingerprint: table.Fingerprint,
		Records:     len(table.Records),
		KPIs:        kpis,
		Views:       views,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("encode summary json", err)
	}

	path := filepath.Join(dir, FileSummaryJSON)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewStorageError("write summary json", err).
			WithContext("path", path)
	}
	return nil
}

// writeWorkbook renders one sheet per summary view plus a KPI sheet.
func (e *Exporter) writeWorkbook(dir string, views *dataprocessing.Views, kpis dataprocessing.KPIs) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"KPIs", []string{"Metric", "Value"}, kpiRows(kpis)},
		{"Monthly Sales", []string{"Month", "Sales"}, periodRows(views.Monthly)},
		{"Daily Sales", []string{"Day", "Sales"}, periodRows(views.Daily)},
		{"Weekly Sales", []string{"Week Start", "Sales"}, periodRows(views.Weekly)},
		{"Food Type Monthly", []string{"Month", "Veg", "Non Veg"}, foodTypeRows(views.FoodTypeMonthly)},
		{"State Sales", []string{"State", "Sales"}, stateRows(views.States)},
		{"Quarterly Summary", []string{"Quarter", "Total Sales", "Total Orders", "Average Rating"}, quarterRows(views.Quarters)},
		{"Top Cities", []string{"City", "Sales"}, cityRows(views.TopCities)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			// Rename the default sheet rather than leaving an empty Sheet1.
			defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
			if err := f.SetSheetName(defaultSheet, sheet.name); err != nil {
				return apperrors.NewStorageError("rename workbook sheet", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return apperrors.NewStorageError("create workbook sheet", err).
					WithContext("sheet", sheet.name)
			}
		}

		if err := writeSheet(f, sheet.name, sheet.header, sheet.rows); err != nil {
			return err
		}
	}

	path := filepath.Join(dir, FileWorkbook)
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("write report workbook", err).
			WithContext("path", path)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	all := append([][]string{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewStorageError("address workbook cell", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return apperrors.NewStorageError("write workbook row", err).
				WithContext("sheet", sheet)
		}
	}
	return nil
}

func (e *Exporter) writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create report file", err).
			WithContext("path", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return apperrors.NewStorageError("write report header", err).
			WithContext("path", path)
	}
	if err := w.WriteAll(rows); err != nil {
		return apperrors.NewStorageError("write report rows", err).
			WithContext("path", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewStorageError("flush report file", err).
			WithContext("path", path)
	}
	return f.Close()
}

func periodRows(rows []dataprocessing.PeriodSales) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Period.Format(dayLayout), formatFloat(r.Sales)})
	}
	return out
}

func foodTypeRows(rows []dataprocessing.FoodTypeMonthlySales) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Month.Format(dayLayout), formatFloat(r.Veg), formatFloat(r.NonVeg)})
	}
	return out
}

func stateRows(rows []dataprocessing.StateSales) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.State, formatFloat(r.Sales)})
	}
	return out
}

func quarterRows(rows []dataprocessing.QuarterSummary) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Quarter,
			formatFloat(r.TotalSales),
			strconv.Itoa(r.TotalOrders),
			formatFloat(r.AverageRating),
		})
	}
	return out
}

func cityRows(rows []dataprocessing.CitySales) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.City, formatFloat(r.Sales)})
	}
	return out
}

func kpiRows(k dataprocessing.KPIs) [][]string {
	return [][]string{
		{"Total Sales", formatFloat(k.TotalSales)},
		{"Total Orders", strconv.Itoa(k.TotalOrders)},
		{"Average Rating", formatFloat(k.AverageRating)},
		{"Rating Count", strconv.FormatInt(k.RatingCount, 10)},
		{"Average Order Value", formatFloat(k.AverageOrderValue)},
	}
}

// formatFloat renders a value for CSV output; absent values render empty.
func formatFloat(v float64) string {
	if v != v {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
