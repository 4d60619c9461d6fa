// Package export writes directory and audit tables to files or object
// storage as CSV or XLSX.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Encode writes t to w in the given format.
func Encode(t ems.Table, format string, w io.Writer) error {
	switch format {
	case FormatCSV, "":
		return encodeCSV(t, w)
	case FormatXLSX:
		return encodeXLSX(t, w)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}

func encodeCSV(t ems.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

func encodeXLSX(t ems.Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, t.Headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(t.Headers) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("creating header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("writing row %d: %w", n, err)
	}
	return nil
}

// Write encodes t, stores it in sink under a timestamped name and returns
// where it went.
func Write(ctx context.Context, sink ems.ExportSink, t ems.Table, format string, clock ems.Clock) (string, error) {
	if format == "" {
		format = FormatCSV
	}
	var buf bytes.Buffer
	if err := Encode(t, format, &buf); err != nil {
		return "", err
	}

	name := t.FileName(format, clock)
	if err := sink.Put(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return "", fmt.Errorf("storing %s: %w", name, err)
	}
	return sink.Location(name), nil
}
