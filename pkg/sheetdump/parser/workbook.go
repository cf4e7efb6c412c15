// Package parser provides OOXML spreadsheet parsing utilities.
package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/ukaji3/sheetdump-go/pkg/sheetdump/models"
)

// Default part names used when the package relationships are missing.
const (
	defaultWorkbookPath = "xl/workbook.xml"
	packageRelsPath     = "_rels/.rels"
)

// ErrSheetNotFound indicates the named sheet has no worksheet part in the package.
var ErrSheetNotFound = errors.New("worksheet part not found")

// ResolveSheet maps a sheet name to its worksheet part path.
func ResolveSheet(r *zip.Reader, sheetName string) (models.SheetRef, error) {
	workbookPath := findWorkbookPath(r)

	workbookXML, err := readZipFile(r, workbookPath)
	if err != nil {
		return models.SheetRef{}, err
	}
	if workbookXML == nil {
		return models.SheetRef{}, fmt.Errorf("%s: %w", workbookPath, fs.ErrNotExist)
	}

	sheetsInfo := parseWorkbookSheets(workbookXML)

	relsPath := relsPathFor(workbookPath)
	wbRelsXML, err := readZipFile(r, relsPath)
	if err != nil {
		return models.SheetRef{}, err
	}

	sheetFiles := parseWorkbookRels(wbRelsXML, sheetsInfo, path.Dir(workbookPath))
	sheetPath, ok := sheetFiles[sheetName]
	if !ok {
		return models.SheetRef{}, fmt.Errorf("sheet %q: %w", sheetName, ErrSheetNotFound)
	}

	return models.SheetRef{Name: sheetName, Path: sheetPath}, nil
}

// OpenSheet opens the worksheet part for streaming.
func OpenSheet(r *zip.Reader, ref models.SheetRef) (io.ReadCloser, error) {
	for _, f := range r.File {
		if f.Name == ref.Path {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("sheet %q (%s): %w", ref.Name, ref.Path, ErrSheetNotFound)
}

// findWorkbookPath reads the package relationships to locate the workbook part.
func findWorkbookPath(r *zip.Reader) string {
	data, err := readZipFile(r, packageRelsPath)
	if err != nil || data == nil {
		return defaultWorkbookPath
	}

	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var relType, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Type":
					relType = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if strings.HasSuffix(relType, "/officeDocument") && target != "" {
				return resolveRelativePath(target, "")
			}
		}
	}

	return defaultWorkbookPath
}

// relsPathFor returns the relationships part of a given part,
// e.g. xl/workbook.xml -> xl/_rels/workbook.xml.rels.
func relsPathFor(partPath string) string {
	dir, base := path.Split(partPath)
	return dir + "_rels/" + base + ".rels"
}

// readZipFile reads a whole entry. A missing entry yields nil data and no error.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

// resolveRelativePath resolves a relationship target against the directory
// of the part owning the relationship. Absolute targets start at the package root.
func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join(baseDir, target)), "/")
}

// parseWorkbookSheets returns a mapping of relationship id to sheet name.
func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string) // rId -> sheet name
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var name, rID string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "name":
					name = attr.Value
				case "id":
					rID = attr.Value
				}
			}
			if name != "" && rID != "" {
				result[rID] = name
			}
		}
	}

	return result
}

// parseWorkbookRels returns a mapping of sheet name to worksheet part path.
func parseWorkbookRels(data []byte, sheetsInfo map[string]string, baseDir string) map[string]string {
	result := make(map[string]string) // sheet name -> file path
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if sheetName, ok := sheetsInfo[rID]; ok && strings.Contains(strings.ToLower(target), "worksheet") {
				result[sheetName] = resolveRelativePath(target, baseDir)
			}
		}
	}

	return result
}
