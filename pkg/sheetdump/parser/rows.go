package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawCell is a <c> element as it appears in the worksheet XML.
type RawCell struct {
	// Ref is the A1-style reference, derived from the position when the
	// element carries no r attribute.
	Ref string
	// Col is the column index (1-based).
	Col int
	// Type is the t attribute ("s", "n", "b", "e", "str", "inlineStr", "d" or "").
	Type string
	// Value is the text of the <v> child.
	Value string
	// HasValue reports whether a <v> child was present.
	HasValue bool
	// HasFormula reports whether an <f> child was present.
	HasFormula bool
	// Formula is the text of the <f> child; empty for shared formula followers.
	Formula string
	// InlineText is the text of an <is> child.
	InlineText string
	// HasInline reports whether an <is> child was present.
	HasInline bool
}

// RawRow is a <row> element with its present cells in document order.
type RawRow struct {
	// R is the row index (1-based).
	R int
	// Cells holds the <c> children; absent columns are not represented.
	Cells []RawCell
}

// RowScanner streams rows from a worksheet part.
//
// Rows come out in physical order and are not buffered beyond the current one.
// A scanner cannot be restarted.
type RowScanner struct {
	decoder *xml.Decoder
	row     RawRow
	lastRow int
	err     error
	done    bool
}

// NewRowScanner returns a scanner reading worksheet XML from r.
func NewRowScanner(r io.Reader) *RowScanner {
	return &RowScanner{decoder: xml.NewDecoder(r)}
}

// Next advances to the next row. It returns false at the end of the sheet
// or on error; Err distinguishes the two.
func (s *RowScanner) Next() bool {
	if s.done {
		return false
	}

	for {
		token, err := s.decoder.Token()
		if err == io.EOF {
			s.done = true
			return false
		}
		if err != nil {
			return s.fail(err)
		}

		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}

		row, err := s.parseRow(se)
		if err != nil {
			return s.fail(err)
		}
		s.row = row
		s.lastRow = row.R
		return true
	}
}

// Row returns the current row.
func (s *RowScanner) Row() RawRow {
	return s.row
}

// Err returns the first error encountered while scanning.
func (s *RowScanner) Err() error {
	return s.err
}

func (s *RowScanner) fail(err error) bool {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	s.err = fmt.Errorf("scan worksheet: %w", err)
	s.done = true
	return false
}

// parseRow consumes a <row> element up to its end tag.
func (s *RowScanner) parseRow(start xml.StartElement) (RawRow, error) {
	row := RawRow{R: s.lastRow + 1}
	if v := attrValue(start, "r"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return row, fmt.Errorf("invalid row number %q", v)
		}
		row.R = n
	}

	lastCol := 0
	for {
		token, err := s.decoder.Token()
		if err != nil {
			return row, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "c" {
				if err := s.decoder.Skip(); err != nil {
					return row, err
				}
				continue
			}
			cell, err := s.parseCell(t, row.R, lastCol)
			if err != nil {
				return row, err
			}
			lastCol = cell.Col
			row.Cells = append(row.Cells, cell)
		case xml.EndElement:
			if t.Name.Local == "row" {
				return row, nil
			}
		}
	}
}

// parseCell consumes a <c> element up to its end tag.
func (s *RowScanner) parseCell(start xml.StartElement, rowNum, lastCol int) (RawCell, error) {
	cell := RawCell{Type: attrValue(start, "t")}

	if ref := attrValue(start, "r"); ref != "" {
		col, _, err := excelize.CellNameToCoordinates(ref)
		if err != nil {
			return cell, err
		}
		cell.Ref = ref
		cell.Col = col
	} else {
		cell.Col = lastCol + 1
		ref, err := excelize.CoordinatesToCellName(cell.Col, rowNum)
		if err != nil {
			return cell, err
		}
		cell.Ref = ref
	}

	for {
		token, err := s.decoder.Token()
		if err != nil {
			return cell, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "v":
				text, err := readElementText(s.decoder)
				if err != nil {
					return cell, err
				}
				cell.Value = text
				cell.HasValue = true
			case "f":
				text, err := readElementText(s.decoder)
				if err != nil {
					return cell, err
				}
				cell.Formula = text
				cell.HasFormula = true
			case "is":
				text, err := readInlineString(s.decoder)
				if err != nil {
					return cell, err
				}
				cell.InlineText = text
				cell.HasInline = true
			default:
				if err := s.decoder.Skip(); err != nil {
					return cell, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "c" {
				return cell, nil
			}
		}
	}
}

// readElementText collects the character data of the current element,
// including nested elements, and consumes its end tag.
func readElementText(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return sb.String(), err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

// readInlineString collects the <t> runs of an <is> element.
// Phonetic runs (<rPh>) are skipped.
func readInlineString(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return sb.String(), err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				text, err := readElementText(decoder)
				if err != nil {
					return sb.String(), err
				}
				sb.WriteString(text)
			case "r":
				// rich text run; its <t> is picked up on the next iterations
			default:
				if err := decoder.Skip(); err != nil {
					return sb.String(), err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "is" {
				return sb.String(), nil
			}
		}
	}
}

func attrValue(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local && attr.Name.Space == "" {
			return attr.Value
		}
	}
	return ""
}
