package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoSheets is returned for a workbook that contains no worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")

	// ErrLegacyWorkbook wraps every failure to parse a BIFF (.xls) workbook.
	ErrLegacyWorkbook = errors.New("unreadable legacy workbook")
)

// oleSignature opens every OLE2 compound file, the container legacy .xls
// workbooks are stored in. OOXML workbooks are ZIP archives instead.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// isLegacy reports whether head starts with the OLE2 signature.
func isLegacy(head []byte) bool {
	return bytes.HasPrefix(head, oleSignature)
}

// ReadFile parses the first worksheet of the workbook at path into rows.
// OOXML workbooks (.xlsx, .xlsm) are read with excelize and legacy BIFF
// workbooks (.xls) with extrame/xls; the format is chosen from the file's
// leading bytes, not its name.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: open workbook: %w", err)
	}
	defer f.Close()

	head := make([]byte, len(oleSignature))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ReadFile: read workbook: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ReadFile: rewind workbook: %w", err)
	}

	if isLegacy(head[:n]) {
		rows, err := readLegacy(f)
		if err != nil {
			return nil, fmt.Errorf("ReadFile: %w", err)
		}
		return rows, nil
	}

	wb, err := excelize.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: open workbook: %w", err)
	}
	defer wb.Close()

	return readFirstSheet(wb)
}

// Read parses the first worksheet of a workbook streamed from r. Both
// workbook formats are accepted, as with ReadFile.
func Read(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Read: read workbook: %w", err)
	}

	if isLegacy(data) {
		rows, err := readLegacy(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("Read: %w", err)
		}
		return rows, nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Read: open workbook: %w", err)
	}
	defer f.Close()

	return readFirstSheet(f)
}

func readFirstSheet(f *excelize.File) ([]Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return gridToRows(grid), nil
}

// readLegacy reads the first worksheet of a BIFF workbook. The parser
// panics on some malformed input, so panics are turned into errors.
func readLegacy(rs io.ReadSeeker) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: %v", ErrLegacyWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(rs, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyWorkbook, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrLegacyWorkbook)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoSheets
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheets
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		grid = append(grid, cells)
	}

	return gridToRows(grid), nil
}

// gridToRows treats the first row as the header. Cells under a blank
// header are dropped, short rows are padded with "", and rows with no
// content at all are left out.
func gridToRows(grid [][]string) []Row {
	if len(grid) == 0 {
		return []Row{}
	}

	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(Row, len(header))
		blank := true
		for i, h := range header {
			if h == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = cells[i]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}

	return rows
}
