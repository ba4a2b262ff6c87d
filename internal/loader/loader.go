// Package loader reads sales export files into raw tables. It accepts CSV
// exports (latin-1 encoded, the encoding the upstream export tool emits) and
// Excel workbooks, and hands the dataprocessing pipeline a uniform
// domain.RawTable regardless of source format.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Loader reads raw export tables from disk or from in-memory bytes.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "loader")),
	}
}

// ReadFile loads a raw table from path, dispatching on the file extension.
// The sheet name is used only for Excel workbooks; empty means the first
// sheet. Unreadable input yields a STORAGE error.
func (l *Loader) ReadFile(ctx context.Context, path, sheet string) (domain.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("read input file", err).
			WithContext("path", path)
	}

	table, err := l.FromBytes(ctx, data, filepath.Ext(path), sheet)
	if err != nil {
		return domain.RawTable{}, err
	}

	l.logger.InfoContext(ctx, "input file loaded",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

// FromBytes parses raw file content. ext selects the format (".csv", ".xlsx",
// ".xlsm"); anything else is rejected.
func (l *Loader) FromBytes(ctx context.Context, data []byte, ext, sheet string) (domain.RawTable, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return l.fromCSV(bytes.NewReader(data))
	case ".xlsx", ".xlsm":
		return l.fromExcel(bytes.NewReader(data), sheet)
	default:
		return domain.RawTable{}, apperrors.NewValidationError("unsupported input format").
			WithContext("extension", ext)
	}
}

// fromCSV decodes latin-1 CSV content. Ragged rows are tolerated; the parser
// treats missing trailing cells as empty.
func (l *Loader) fromCSV(r io.Reader) (domain.RawTable, error) {
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("decode csv input", err)
	}
	if len(rows) == 0 {
		return domain.RawTable{}, apperrors.NewValidationError("input file has no header row")
	}

	return domain.RawTable{Headers: rows[0], Rows: rows[1:]}, nil
}

// fromExcel reads one sheet of an Excel workbook. Empty sheet selects the
// first sheet in the workbook.
func (l *Loader) fromExcel(r io.Reader, sheet string) (domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("open excel workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.RawTable{}, apperrors.NewValidationError("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("read excel sheet", err).
			WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return domain.RawTable{}, apperrors.NewValidationError("input file has no header row").
			WithContext("sheet", sheet)
	}

	return domain.RawTable{Headers: rows[0], Rows: rows[1:]}, nil
}
