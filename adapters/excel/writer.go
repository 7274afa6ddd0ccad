package excel

import (
	"encoding/csv"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"gomend/domain/table"
	"gomend/internal/errors"
)

// DataWriter writes tables in the format picked from the file extension.
type DataWriter struct {
	fs       afero.Fs
	filePath string
	format   Format
}

// NewDataWriter creates a writer for filePath on fs.
func NewDataWriter(fs afero.Fs, filePath string) (*DataWriter, error) {
	format, err := FormatOf(filePath)
	if err != nil {
		return nil, err
	}
	return &DataWriter{fs: fs, filePath: filePath, format: format}, nil
}

// WriteTable writes a header row and one row per table row. Missing cells
// are written empty.
func (w *DataWriter) WriteTable(t *table.Table) error {
	file, err := w.fs.Create(w.filePath)
	if err != nil {
		return errors.IOError("failed to create output file", err)
	}
	defer file.Close()

	if w.format == FormatXLSX {
		return writeXLSX(file, t)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return errors.IOError("failed to write CSV header", err)
	}
	record := make([]string, t.NumColumns())
	for pos := 0; pos < t.NumRows(); pos++ {
		for j, c := range t.Columns() {
			record[j] = FormatCell(c.At(pos))
		}
		if err := cw.Write(record); err != nil {
			return errors.IOError("failed to write CSV row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.IOError("failed to flush CSV file", err)
	}
	return nil
}

func writeXLSX(file afero.File, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, t.NumColumns())
	for j, name := range t.ColumnNames() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.IOError("failed to write sheet header", err)
	}

	for pos := 0; pos < t.NumRows(); pos++ {
		row := make([]interface{}, t.NumColumns())
		for j, c := range t.Columns() {
			v := c.At(pos)
			switch {
			case v.IsMissing():
				row[j] = nil
			case v.IsTimestamp():
				row[j] = FormatCell(v)
			default:
				row[j] = v.Interface()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, pos+2)
		if err != nil {
			return errors.IOError("failed to address sheet row", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.IOError(fmt.Sprintf("failed to write sheet row %d", pos+2), err)
		}
	}
	if _, err := f.WriteTo(file); err != nil {
		return errors.IOError("failed to write Excel file", err)
	}
	return nil
}

// FormatCell renders a cell for text output.
func FormatCell(v table.Value) string {
	switch {
	case v.IsMissing():
		return ""
	case v.IsTimestamp():
		return v.Timestamp().Format(time.RFC3339)
	}
	return v.String()
}
