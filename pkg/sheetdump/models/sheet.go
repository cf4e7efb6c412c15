package models

// SheetRef identifies a worksheet inside a workbook package.
type SheetRef struct {
	// Name is the sheet tab name.
	Name string
	// Path is the worksheet part path inside the package (e.g. "xl/worksheets/sheet1.xml").
	Path string
}

// Row is one physical row of a sheet with its present cells in column order.
type Row struct {
	// R is the row index (1-based).
	R int
	// Cells holds only the cells present in the sheet; gaps are not represented.
	Cells []Cell
}
