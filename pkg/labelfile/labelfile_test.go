// pkg/labelfile/labelfile_test.go
package labelfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractCSVWithHeader(t *testing.T) {
	body := "Field Name,Original Value,Translated Value,Category\n" +
		"product_name,핫팩,Hand Warmer,INGREDIENT\n" +
		"net_weight,30g,,SPEC\n" +
		",missing field name,,\n"

	records, err := Extract("labels.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	first := records[0]
	if first.FieldName != "product_name" || first.OriginalValue != "핫팩" ||
		first.TranslatedValue != "Hand Warmer" || first.Category != "INGREDIENT" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if records[1].Category != "GENERAL" {
		t.Fatalf("empty category must default to GENERAL, got %q", records[1].Category)
	}
}

func TestExtractCSVPositionalFallback(t *testing.T) {
	// No recognizable header: first column is the field, second the value.
	body := "product_name,핫팩\nnet_weight,30g\n"

	records, err := Extract("labels.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].FieldName != "product_name" || records[0].OriginalValue != "핫팩" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestExtractCSVPartialHeaderSkipped(t *testing.T) {
	// "field" is a known column name, so the first row is a header even
	// though the value column is missing; it must not become a record.
	body := "field,comment\nproduct_name,핫팩\n"

	records, err := Extract("labels.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].FieldName != "product_name" || records[0].OriginalValue != "핫팩" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestExtractXLSX(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"field", "value", "translation", "category"},
		{"product_name", "핫팩", "Hand Warmer", "INGREDIENT"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	records, err := Extract("labels.xlsx", &buf)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].TranslatedValue != "Hand Warmer" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract("labels.pdf", strings.NewReader("%PDF-1.4"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
}

func TestExtractEmptyCSV(t *testing.T) {
	records, err := Extract("labels.csv", strings.NewReader(""))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}
