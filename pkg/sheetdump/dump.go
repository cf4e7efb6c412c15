package sheetdump

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/ukaji3/sheetdump-go/pkg/sheetdump/models"
	"github.com/ukaji3/sheetdump-go/pkg/sheetdump/parser"
	"github.com/xuri/excelize/v2"
	"go.alis.build/alog"
)

// oleSignature starts a compound file, the container of encrypted workbooks.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// sheetLister is the part of *excelize.File used to pick the first sheet.
type sheetLister interface {
	GetSheetList() []string
}

// Dump writes every present cell of the first sheet of the workbook at path
// to w. Each cell token is followed by the separator and each row by a
// newline. Output is flushed row by row, so rows written before a failure
// stay written.
//
// Every failure is returned as an *IOError.
func Dump(ctx context.Context, path string, w io.Writer, opts Options) error {
	pkg, err := readPackage(ctx, path, opts)
	if err != nil {
		return err
	}

	wb, err := excelize.OpenReader(bytes.NewReader(pkg))
	if err != nil {
		return NewIOError("open", path, openError(err))
	}
	defer wb.Close()

	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		return NewIOError("open", path, openError(err))
	}

	sheetName, err := firstSheet(wb)
	if err != nil {
		return NewIOError("select sheet", path, err)
	}

	ref, err := parser.ResolveSheet(zr, sheetName)
	if err != nil {
		return NewIOError("select sheet", path, errors.Wrap(ErrNoSheet, err.Error()))
	}

	rc, err := parser.OpenSheet(zr, ref)
	if err != nil {
		return NewIOError("select sheet", path, errors.Wrap(ErrNoSheet, err.Error()))
	}
	defer rc.Close()

	alog.Debugf(ctx, "dumping sheet %q from %s", ref.Name, ref.Path)

	bw := bufio.NewWriter(w)
	sep := opts.TokenSeparator()
	scanner := parser.NewRowScanner(rc)
	rows := 0
	for scanner.Next() {
		row, err := parser.ClassifyRow(wb, ref.Name, scanner.Row())
		if err != nil {
			return NewIOError("read", path, errors.Wrapf(err, "row %d", scanner.Row().R))
		}
		if err := writeRow(bw, row, sep); err != nil {
			return NewIOError("write", "", errors.WithStack(err))
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return NewIOError("read", path, errors.Wrap(ErrInvalidFormat, err.Error()))
	}

	alog.Debugf(ctx, "dumped %s rows", humanize.Comma(int64(rows)))
	return nil
}

// readPackage loads the workbook package bytes, decrypting them when a
// password is set.
func readPackage(ctx context.Context, path string, opts Options) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewIOError("open", path, errors.Wrap(ErrFileNotFound, causeOf(err).Error()))
		}
		return nil, NewIOError("open", path, errors.WithStack(err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, NewIOError("open", path, errors.WithStack(err))
	}
	if info.IsDir() {
		return nil, NewIOError("open", path, errors.Wrap(ErrInvalidFormat, "is a directory"))
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, NewIOError("read", path, errors.WithStack(err))
	}
	alog.Debugf(ctx, "read %s (%s)", path, humanize.Bytes(uint64(len(raw))))

	if opts.Password == "" || !bytes.HasPrefix(raw, oleSignature) {
		return raw, nil
	}

	pkg, err := excelize.Decrypt(raw, &excelize.Options{Password: opts.Password})
	if err != nil {
		return nil, NewIOError("open", path, openError(err))
	}
	return pkg, nil
}

// firstSheet returns the name of the sheet at index 0.
func firstSheet(wb sheetLister) (string, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.WithStack(ErrNoSheet)
	}
	return sheets[0], nil
}

// writeRow prints the tokens of a row followed by a newline, then flushes.
func writeRow(bw *bufio.Writer, row models.Row, sep string) error {
	for _, cell := range row.Cells {
		if _, err := bw.WriteString(cell.Token()); err != nil {
			return err
		}
		if _, err := bw.WriteString(sep); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// openError tags a parse failure as an invalid document unless the password was wrong.
func openError(err error) error {
	if errors.Is(err, excelize.ErrWorkbookPassword) {
		return errors.WithStack(err)
	}
	return errors.Wrap(ErrInvalidFormat, err.Error())
}

// causeOf strips the operation and path from a *fs.PathError.
func causeOf(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
