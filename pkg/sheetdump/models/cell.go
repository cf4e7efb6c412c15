// Package models defines data structures for sheet dumping.
package models

import (
	"math"
	"strconv"
)

// UnknownToken is printed for cells whose kind is not recognized.
const UnknownToken = "UNKNOWN"

// Kind is the closed set of cell kinds a dumped cell can have.
type Kind int

const (
	// KindUnrecognized covers blank, error and unknown cell types.
	KindUnrecognized Kind = iota
	// KindText is a shared, inline or plain string cell.
	KindText
	// KindNumeric is a number (dates are stored as serial numbers).
	KindNumeric
	// KindBoolean is a TRUE/FALSE cell.
	KindBoolean
	// KindFormula is a cell holding a formula expression.
	KindFormula
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindFormula:
		return "formula"
	case KindUnrecognized:
		return "unrecognized"
	}
	return "unrecognized"
}

// Cell represents a single present cell of a row.
type Cell struct {
	// Ref is the A1-style reference (e.g. "C7").
	Ref string
	// Col is the column index (1-based).
	Col int
	// Kind selects which of the value fields below is meaningful.
	Kind Kind
	// Text is the value of a KindText cell.
	Text string
	// Number is the value of a KindNumeric cell.
	Number float64
	// Bool is the value of a KindBoolean cell.
	Bool bool
	// Formula is the expression of a KindFormula cell, including the leading "=".
	Formula string
}

// Token renders the cell as it is printed.
func (c Cell) Token() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumeric:
		return FormatNumber(c.Number)
	case KindBoolean:
		return strconv.FormatBool(c.Bool)
	case KindFormula:
		return c.Formula
	case KindUnrecognized:
		return UnknownToken
	}
	return UnknownToken
}

// FormatNumber renders a float as its shortest round-trip decimal form.
// Values outside [1e-6, 1e21) use exponent notation.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
