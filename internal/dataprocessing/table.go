package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a header row plus data rows, all cells as trimmed strings.
type Table struct {
	Source string
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table and its case-insensitive header index.
func NewTable(source string, header []string, rows [][]string) *Table {
	t := &Table{Source: source, Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		key := headerKey(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// ReadTable reads a .csv or .xlsx file. For workbooks, the first row on any
// sheet containing all of required is taken as the header.
func ReadTable(path string, required ...string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to open "+path, err)
		}
		defer f.Close()
		return ReadCSV(f, path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, required...)
	}
	return nil, apperrors.NewParsingError("unsupported table format "+path, nil)
}

// ReadCSV reads a CSV stream whose first record is the header.
func ReadCSV(r io.Reader, source string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read "+source, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("malformed csv "+source, err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("empty csv "+source, nil)
	}
	return NewTable(source, trimAll(records[0]), trimRows(records[1:])), nil
}

// ReadXLSX finds the header row on the first sheet that has one.
func ReadXLSX(path string, required ...string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook "+path, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		for i, row := range rows {
			if !hasColumns(row, required) {
				continue
			}
			return NewTable(fmt.Sprintf("%s[%s]", path, sheet), trimAll(row), trimRows(rows[i+1:])), nil
		}
	}
	return nil, apperrors.NewParsingError(
		fmt.Sprintf("no sheet in %s has a header with %s", path, strings.Join(required, ", ")), nil)
}

// Column returns the index of the first alias present in the header, or -1.
func (t *Table) Column(aliases ...string) int {
	for _, a := range aliases {
		if i, ok := t.index[headerKey(a)]; ok {
			return i
		}
	}
	return -1
}

// Require is Column that fails when no alias is present.
func (t *Table) Require(aliases ...string) (int, error) {
	if i := t.Column(aliases...); i >= 0 {
		return i, nil
	}
	return -1, apperrors.NewParsingError(
		fmt.Sprintf("%s: missing column (one of %s)", t.Source, strings.Join(aliases, ", ")), nil)
}

// Cell returns row[idx], or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func hasColumns(row, required []string) bool {
	if len(required) == 0 {
		return len(row) > 0
	}
	present := make(map[string]bool, len(row))
	for _, c := range row {
		present[headerKey(c)] = true
	}
	for _, r := range required {
		if !present[headerKey(r)] {
			return false
		}
	}
	return true
}

func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func trimRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		empty := true
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		out = append(out, trimAll(r))
	}
	return out
}
