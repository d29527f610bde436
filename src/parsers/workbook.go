package parsers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/security/validation"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrSheetNotFound is returned when a workbook lacks the requested sheet.
var ErrSheetNotFound = errors.New("sheet not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Block is the raw tabular content of one sheet: rows of cell strings, ragged allowed.
type Block struct {
	Sheet string
	Rows  [][]string
}

// ReadWorkbook loads one sheet of the file at path. An empty sheet name selects the first sheet.
// CSV files have a single unnamed sheet and ignore the requested name.
func ReadWorkbook(path, sheet string) (*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWorkbookFrom(f, sheet)
}

// ReadWorkbookFrom is ReadWorkbook over an already opened file. The container format
// is decided by the content signature, not by the file name.
func ReadWorkbookFrom(r io.ReadSeeker, sheet string) (*Block, error) {
	format, err := validation.DetectFormat(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case validation.FormatXLSX:
		return readXLSX(r, sheet)
	case validation.FormatXLS:
		return readXLS(r, sheet)
	default:
		return readCSV(r)
	}
}

func readXLSX(r io.Reader, want string) (*Block, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	name, ok := pickSheet(names, want)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, want, strings.Join(names, ", "))
	}

	// Raw values keep dates as serial numbers and amounts unformatted.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return &Block{Sheet: name, Rows: rows}, nil
}

func readXLS(r io.ReadSeeker, want string) (*Block, error) {
	workbook, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	names := make([]string, 0, workbook.GetNumberSheets())
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		s, err := workbook.GetSheet(i)
		if err != nil || s == nil {
			names = append(names, "")
			continue
		}
		names = append(names, s.GetName())
	}

	name, ok := pickSheet(names, want)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, want, strings.Join(names, ", "))
	}
	index := 0
	for i, n := range names {
		if n == name {
			index = i
			break
		}
	}

	sheet, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	var rows [][]string
	for _, row := range sheet.GetRows() {
		if row == nil {
			continue
		}
		var cells []string
		for _, col := range row.GetCols() {
			if col == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, col.GetString())
		}
		rows = append(rows, cells)
	}
	return &Block{Sheet: name, Rows: rows}, nil
}

func readCSV(r io.Reader) (*Block, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("decode windows-1252: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return &Block{Rows: rows}, nil
}

// sniffDelimiter picks the most frequent candidate separator on the first non-empty line.
// Italian exports default to ';'.
func sniffDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestCount := ';', strings.Count(line, ";")
		for _, c := range []rune{',', '\t'} {
			if n := strings.Count(line, string(c)); n > bestCount {
				best, bestCount = c, n
			}
		}
		return best
	}
	logger.L.Debug("CSV has no content line, defaulting delimiter")
	return ';'
}

func pickSheet(names []string, want string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	if want == "" {
		return names[0], true
	}
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(want)) {
			return n, true
		}
	}
	return "", false
}
