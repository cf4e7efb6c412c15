package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/sheetdump-go/pkg/sheetdump/models"
	"github.com/xuri/excelize/v2"
)

// CellSource resolves cell content that lives outside the worksheet part,
// such as shared strings and shared formulas. *excelize.File implements it.
type CellSource interface {
	GetCellValue(sheet, cell string, opts ...excelize.Options) (string, error)
	GetCellFormula(sheet, cell string) (string, error)
}

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// isoDateLayouts are the forms accepted for t="d" cells.
var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Classify turns a raw cell into exactly one cell kind.
// A cell carrying a formula is always a formula cell, whatever its cached result.
func Classify(src CellSource, sheetName string, raw RawCell) (models.Cell, error) {
	cell := models.Cell{Ref: raw.Ref, Col: raw.Col, Kind: models.KindUnrecognized}

	if raw.HasFormula {
		formula, err := src.GetCellFormula(sheetName, raw.Ref)
		if err != nil {
			return cell, err
		}
		if formula == "" {
			formula = raw.Formula
		}
		formula = strings.TrimPrefix(formula, "=")
		if formula != "" {
			cell.Kind = models.KindFormula
			cell.Formula = "=" + formula
		}
		return cell, nil
	}

	switch raw.Type {
	case "s":
		if !raw.HasValue {
			return cell, nil
		}
		text, err := src.GetCellValue(sheetName, raw.Ref, excelize.Options{RawCellValue: true})
		if err != nil {
			return cell, err
		}
		cell.Kind = models.KindText
		cell.Text = text
	case "inlineStr":
		cell.Kind = models.KindText
		cell.Text = raw.InlineText
		if !raw.HasInline {
			cell.Text = raw.Value
		}
	case "str":
		cell.Kind = models.KindText
		cell.Text = raw.Value
	case "b":
		if b, ok := parseBool(raw.Value); ok {
			cell.Kind = models.KindBoolean
			cell.Bool = b
		}
	case "n", "":
		if !raw.HasValue {
			// styled but empty
			return cell, nil
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw.Value), 64); err == nil {
			cell.Kind = models.KindNumeric
			cell.Number = n
		}
	case "d":
		if n, ok := parseISODate(raw.Value); ok {
			cell.Kind = models.KindNumeric
			cell.Number = n
		}
	}

	return cell, nil
}

// ClassifyRow classifies every present cell of a raw row.
func ClassifyRow(src CellSource, sheetName string, raw RawRow) (models.Row, error) {
	row := models.Row{R: raw.R, Cells: make([]models.Cell, 0, len(raw.Cells))}
	for _, rc := range raw.Cells {
		cell, err := Classify(src, sheetName, rc)
		if err != nil {
			return row, err
		}
		row.Cells = append(row.Cells, cell)
	}
	return row, nil
}

func parseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "1", "true", "TRUE":
		return true, true
	case "0", "false", "FALSE":
		return false, true
	}
	return false, false
}

// parseISODate converts an ISO-8601 date to an Excel serial number.
func parseISODate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		serial := float64(t.Unix()-excelEpoch.Unix())/86400 + float64(t.Nanosecond())/86400e9
		// Excel counts a nonexistent 1900-02-29, so earlier dates are one lower.
		if serial < 61 {
			serial--
		}
		return serial, true
	}
	return 0, false
}
