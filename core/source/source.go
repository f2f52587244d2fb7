// Package source loads uploaded data files into tables. CSV files go through
// the delimited parser and xlsx workbooks are read with excelize.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/asaidimu/go-tabula/core/delimited"
	"github.com/asaidimu/go-tabula/core/table"
	"github.com/asaidimu/go-tabula/core/upload"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyDataset is returned when a file holds no data rows.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrTooFewColumns is returned when a file has fewer than MinColumns columns.
	ErrTooFewColumns = errors.New("dataset has too few columns")
)

// MinColumns is the smallest accepted header width.
const MinColumns = 2

type options struct {
	parserOpts []delimited.Option
	sheet      string
	logger     *zap.Logger
}

// Option configures Load.
type Option func(*options)

// WithParserOptions passes options to the delimited parser for .csv files.
// They are applied after the default WithQuotedFields.
func WithParserOptions(opts ...delimited.Option) Option {
	return func(o *options) { o.parserOpts = append(o.parserOpts, opts...) }
}

// WithSheet selects a workbook sheet by name instead of the first one.
func WithSheet(name string) Option {
	return func(o *options) { o.sheet = name }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Load reads r as the file called name and returns its table.
func Load(ctx context.Context, name string, r io.Reader, opts ...Option) (*table.Table, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	var (
		t   *table.Table
		err error
	)
	switch upload.Extension(name) {
	case ".csv":
		parserOpts := append([]delimited.Option{delimited.WithQuotedFields(), delimited.WithLogger(o.logger)}, o.parserOpts...)
		t, err = delimited.ParseReader(ctx, r, parserOpts...)
	case ".xlsx":
		t, err = loadWorkbook(ctx, r, o.sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if t.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyDataset)
	}
	if t.Width() < MinColumns {
		return nil, fmt.Errorf("%s: %w: got %d, need at least %d", name, ErrTooFewColumns, t.Width(), MinColumns)
	}

	o.logger.Debug("Loaded dataset",
		zap.String("name", name), zap.Int("records", t.Len()), zap.Int("fields", t.Width()))
	return t, nil
}

func loadWorkbook(ctx context.Context, r io.Reader, sheet string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return table.New(nil, []table.Record{}), nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rowsToTable(ctx, rows)
}

// rowsToTable treats the first non-empty row as the header. Short rows are
// padded with empty strings and fully empty rows are skipped.
func rowsToTable(ctx context.Context, rows [][]string) (*table.Table, error) {
	var header []string
	records := []table.Record{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if emptyRow(row) {
			continue
		}
		if header == nil {
			header = headerNames(row)
			continue
		}
		rec := make(table.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return table.New(header, records), nil
}

// headerNames trims header cells, names blank ones by position and suffixes
// repeats.
func headerNames(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			cell = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = cell
	}
	return table.UniqueNames(out)
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
