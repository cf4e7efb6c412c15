package parser

import (
	"archive/zip"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/sheetdump-go/pkg/sheetdump/models"
	"github.com/xuri/excelize/v2"
)

// fakeSource serves shared strings and formulas from maps keyed by cell reference.
type fakeSource struct {
	values   map[string]string
	formulas map[string]string
	err      error
}

func (s fakeSource) GetCellValue(_, cell string, _ ...excelize.Options) (string, error) {
	return s.values[cell], s.err
}

func (s fakeSource) GetCellFormula(_, cell string) (string, error) {
	return s.formulas[cell], s.err
}

func TestClassify(t *testing.T) {
	src := fakeSource{
		values:   map[string]string{"A1": "shared"},
		formulas: map[string]string{"B1": "A1+A2", "B2": "=SUM(A1:A2)"},
	}

	tests := []struct {
		name     string
		raw      RawCell
		kind     models.Kind
		expected string
	}{
		{"shared string", RawCell{Ref: "A1", Type: "s", Value: "0", HasValue: true}, models.KindText, "shared"},
		{"inline string", RawCell{Ref: "A2", Type: "inlineStr", InlineText: "inline", HasInline: true}, models.KindText, "inline"},
		{"plain string result", RawCell{Ref: "A3", Type: "str", Value: "cached", HasValue: true}, models.KindText, "cached"},
		{"number", RawCell{Ref: "A4", Value: "1.5", HasValue: true}, models.KindNumeric, "1.5"},
		{"explicit number", RawCell{Ref: "A5", Type: "n", Value: "100", HasValue: true}, models.KindNumeric, "100"},
		{"boolean true", RawCell{Ref: "A6", Type: "b", Value: "1", HasValue: true}, models.KindBoolean, "true"},
		{"boolean false", RawCell{Ref: "A7", Type: "b", Value: "0", HasValue: true}, models.KindBoolean, "false"},
		{"formula", RawCell{Ref: "B1", HasFormula: true, Formula: "A1+A2"}, models.KindFormula, "=A1+A2"},
		{"formula with equals sign", RawCell{Ref: "B2", HasFormula: true}, models.KindFormula, "=SUM(A1:A2)"},
		{"formula with cached result", RawCell{Ref: "B1", Type: "str", HasFormula: true, Value: "3", HasValue: true}, models.KindFormula, "=A1+A2"},
		{"shared formula fallback", RawCell{Ref: "B3", HasFormula: true, Formula: "C3*2"}, models.KindFormula, "=C3*2"},
		{"empty formula", RawCell{Ref: "B4", HasFormula: true}, models.KindUnrecognized, "UNKNOWN"},
		{"blank styled", RawCell{Ref: "C1"}, models.KindUnrecognized, "UNKNOWN"},
		{"error", RawCell{Ref: "C2", Type: "e", Value: "#DIV/0!", HasValue: true}, models.KindUnrecognized, "UNKNOWN"},
		{"unknown type", RawCell{Ref: "C3", Type: "x", Value: "1", HasValue: true}, models.KindUnrecognized, "UNKNOWN"},
		{"bad number", RawCell{Ref: "C4", Value: "abc", HasValue: true}, models.KindUnrecognized, "UNKNOWN"},
		{"bad boolean", RawCell{Ref: "C5", Type: "b", Value: "2", HasValue: true}, models.KindUnrecognized, "UNKNOWN"},
		{"shared string without index", RawCell{Ref: "C6", Type: "s"}, models.KindUnrecognized, "UNKNOWN"},
		{"iso date", RawCell{Ref: "D1", Type: "d", Value: "2024-01-01", HasValue: true}, models.KindNumeric, "45292"},
		{"iso datetime", RawCell{Ref: "D2", Type: "d", Value: "2024-01-01T12:00:00", HasValue: true}, models.KindNumeric, "45292.5"},
		{"bad date", RawCell{Ref: "D3", Type: "d", Value: "yesterday", HasValue: true}, models.KindUnrecognized, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, err := Classify(src, "Sheet1", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cell.Kind)
			assert.Equal(t, tt.expected, cell.Token())
			assert.Equal(t, tt.raw.Ref, cell.Ref)
		})
	}
}

func TestClassifySourceError(t *testing.T) {
	src := fakeSource{err: errors.New("boom")}

	_, err := Classify(src, "Sheet1", RawCell{Ref: "A1", Type: "s", Value: "0", HasValue: true})
	assert.Error(t, err)

	_, err = Classify(src, "Sheet1", RawCell{Ref: "A1", HasFormula: true})
	assert.Error(t, err)
}

func TestParseISODate(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1900-01-01", 1},
		{"1900-02-28", 59},
		{"1900-03-01", 61},
		{"2024-01-01T00:00:00Z", 45292},
	}

	for _, tt := range tests {
		got, ok := parseISODate(tt.input)
		require.True(t, ok, tt.input)
		assert.InDelta(t, tt.expected, got, 1e-9, tt.input)
	}
}

func TestClassifyRowFromWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	require.NoError(t, f.SetCellValue(sheetName, "A1", "Header1"))
	require.NoError(t, f.SetCellValue(sheetName, "C1", 200.5))
	require.NoError(t, f.SetCellValue(sheetName, "A2", true))
	require.NoError(t, f.SetCellFormula(sheetName, "B2", "=A1&\"x\""))

	tmpFile := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.SaveAs(tmpFile))

	f2, err := excelize.OpenFile(tmpFile)
	require.NoError(t, err)
	defer f2.Close()

	zr, err := zip.OpenReader(tmpFile)
	require.NoError(t, err)
	defer zr.Close()

	ref, err := ResolveSheet(&zr.Reader, sheetName)
	require.NoError(t, err)
	rc, err := OpenSheet(&zr.Reader, ref)
	require.NoError(t, err)
	defer rc.Close()

	var rows []models.Row
	scanner := NewRowScanner(rc)
	for scanner.Next() {
		row, err := ClassifyRow(f2, sheetName, scanner.Row())
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, rows, 2)

	require.Len(t, rows[0].Cells, 2)
	assert.Equal(t, "Header1", rows[0].Cells[0].Token())
	assert.Equal(t, models.KindNumeric, rows[0].Cells[1].Kind)
	assert.Equal(t, 200.5, rows[0].Cells[1].Number)

	require.Len(t, rows[1].Cells, 2)
	assert.Equal(t, "true", rows[1].Cells[0].Token())
	assert.Equal(t, `=A1&"x"`, rows[1].Cells[1].Token())
}
