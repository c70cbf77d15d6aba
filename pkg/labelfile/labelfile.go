// pkg/labelfile/labelfile.go

// Package labelfile extracts label field/value records from uploaded
// tabular files (CSV or XLSX). Files in other formats are stored without
// extraction.
//
// Sheets whose first row names the field and value columns (see
// headerAliases) are read by header. A first row that mentions any known
// column name without the required pair is discarded as a header. Sheets
// with no recognizable column names at all are read positionally: column 0
// is the field name, column 1 the original value.
package labelfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Record is one extracted field of a label sheet.
type Record struct {
	FieldName       string
	OriginalValue   string
	TranslatedValue string
	Category        string
}

// ErrUnsupported marks files that carry no extractable tabular data.
var ErrUnsupported = errors.New("unsupported label file format")

const defaultCategory = "GENERAL"

// Extract parses the uploaded file into label records. The format is picked
// from the filename extension.
func Extract(filename string, r io.Reader) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return extractCSV(r)
	case ".xlsx":
		return extractXLSX(r)
	default:
		return nil, ErrUnsupported
	}
}

func extractCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return recordsFromRows(rows), nil
}

func extractXLSX(r io.Reader) ([]Record, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return recordsFromRows(rows), nil
}

// recordsFromRows maps header columns to record fields. Sheets without a
// recognizable header fall back to positional field/value columns.
func recordsFromRows(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}

	cols, sawAlias := headerIndex(rows[0])
	body := rows
	if cols != nil {
		body = rows[1:]
	} else {
		// A partial header (some known column names, but not the required
		// pair) is still a header, not data.
		if sawAlias {
			body = rows[1:]
		}
		cols = map[string]int{"field_name": 0, "original_value": 1}
	}

	var records []Record
	for _, row := range body {
		rec := Record{
			FieldName:       cell(row, cols, "field_name"),
			OriginalValue:   cell(row, cols, "original_value"),
			TranslatedValue: cell(row, cols, "translated_value"),
			Category:        cell(row, cols, "category"),
		}
		if rec.FieldName == "" || rec.OriginalValue == "" {
			continue
		}
		if rec.Category == "" {
			rec.Category = defaultCategory
		}
		records = append(records, rec)
	}
	return records
}

var headerAliases = map[string]string{
	"field_name":       "field_name",
	"field":            "field_name",
	"name":             "field_name",
	"original_value":   "original_value",
	"original":         "original_value",
	"value":            "original_value",
	"translated_value": "translated_value",
	"translated":       "translated_value",
	"translation":      "translated_value",
	"category":         "category",
}

// headerIndex maps canonical column names to their positions. It returns a
// nil map when the required field/value pair is missing, along with whether
// any known column name appeared at all.
func headerIndex(header []string) (map[string]int, bool) {
	cols := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := headerAliases[key]; ok {
			if _, exists := cols[canonical]; !exists {
				cols[canonical] = i
			}
		}
	}
	sawAlias := len(cols) > 0
	if _, ok := cols["field_name"]; !ok {
		return nil, sawAlias
	}
	if _, ok := cols["original_value"]; !ok {
		return nil, sawAlias
	}
	return cols, sawAlias
}

func cell(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
