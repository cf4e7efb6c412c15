// Package sheetdump prints the first sheet of a spreadsheet as separated text.
package sheetdump

// DefaultSeparator follows every printed cell token.
const DefaultSeparator = "\t"

// Options configures dump behavior.
type Options struct {
	// Separator is written after every cell token.
	// If nil, defaults to a tab.
	Separator *string
	// Password opens encrypted workbooks. Empty for plain workbooks.
	Password string
}

// DefaultOptions returns default dump options.
func DefaultOptions() Options {
	return Options{}
}

// TokenSeparator returns the separator written after every cell token.
func (o Options) TokenSeparator() string {
	if o.Separator != nil {
		return *o.Separator
	}
	return DefaultSeparator
}
