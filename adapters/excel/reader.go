// Package excel reads and writes tables as CSV or xlsx files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"gomend/adapters/coercer"
	"gomend/domain/table"
	"gomend/internal"
	"gomend/internal/errors"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", path))
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	fs       afero.Fs
	filePath string
	format   Format
	sheet    string
	coercer  *coercer.TypeCoercer
	log      *internal.Logger
}

// Option configures a DataReader.
type Option func(*DataReader)

// WithSheet reads the named sheet instead of the first one.
func WithSheet(name string) Option {
	return func(r *DataReader) { r.sheet = name }
}

// WithCoercion overrides type inference and missing tokens.
func WithCoercion(cfg coercer.CoercionConfig) Option {
	return func(r *DataReader) { r.coercer = coercer.NewTypeCoercer(cfg) }
}

// WithLogger sets the logger.
func WithLogger(l *internal.Logger) Option {
	return func(r *DataReader) { r.log = l }
}

// NewDataReader creates a reader for filePath on fs.
func NewDataReader(fs afero.Fs, filePath string, opts ...Option) (*DataReader, error) {
	format, err := FormatOf(filePath)
	if err != nil {
		return nil, err
	}
	r := &DataReader{
		fs:       fs,
		filePath: filePath,
		format:   format,
		coercer:  coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
		log:      internal.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ReadTable reads the file into a table with a positional index.
func (r *DataReader) ReadTable(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok, _ := afero.Exists(r.fs, r.filePath); !ok {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(string(r.format)), r.filePath))
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.format {
	case FormatCSV:
		rows, err = r.readCSVRows()
	case FormatXLSX:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	r.log.Debug("read %s in %.2fms (%d rows)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return r.processRows(rows)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	file, err := r.fs.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open Excel file", err)
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.IOError("failed to parse Excel file", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := r.fs.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("failed to read CSV file", err)
	}
	return rows, nil
}

// processRows turns a header row plus data rows into typed columns. Short
// rows are padded with missing cells, which excelize produces for trailing
// blanks.
func (r *DataReader) processRows(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no header row", r.filePath))
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
	}

	data := rows[1:]
	cols := make([]*table.Column, len(headers))
	for j, name := range headers {
		raw := make([]string, len(data))
		for i, row := range data {
			if j < len(row) {
				raw[i] = row[j]
			}
		}
		col, err := r.coercer.CoerceColumn(name, raw)
		if err != nil {
			return nil, errors.ValidationError(err.Error())
		}
		cols[j] = col
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build table")
	}
	r.log.Debug("%s processed (%d columns, %d rows)", strings.ToUpper(string(r.format)), len(headers), len(data))
	return t, nil
}
