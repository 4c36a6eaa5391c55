package shortlist

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Export limits and sheet layout.
const (
	exportSkills  = 3
	exportReasons = 2
	sheetName     = "Shortlist"
)

var exportHeaders = []string{
	"Rank", "Candidate Name", "Match Score (%)", "Top Skills", "AI Reasons", "Resume File",
}

// Format is an export file format.
type Format string

// Supported export formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates an export format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func exportRecord(v View) []string {
	return []string{
		strconv.Itoa(v.Rank),
		v.Name,
		strconv.Itoa(ScorePercent(v.Score)),
		strings.Join(head(v.Skills, exportSkills), "; "),
		strings.Join(head(v.Reasons, exportReasons), "; "),
		v.FileName,
	}
}

// WriteCSV writes views as CSV with a header row.
func WriteCSV(w io.Writer, views []View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range views {
		if err := cw.Write(exportRecord(v)); err != nil {
			return fmt.Errorf("write csv row %d: %w", v.Rank, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes views to a single-sheet workbook.
func WriteXLSX(w io.Writer, views []View) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, v := range views {
		rec := exportRecord(v)
		row := []any{v.Rank, rec[1], ScorePercent(v.Score), rec[3], rec[4], rec[5]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", v.Rank, err)
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "D", "E", 48); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
