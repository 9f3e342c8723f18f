package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies the encoding of an uploaded dataset.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the decoder from a file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Table is a decoded sheet: a normalized header and its data rows.
// Row i of Rows is data row i+1.
type Table struct {
	Dataset string
	Header  []string
	Rows    [][]string
	// Lines maps each entry of Rows to its 1-based data row number,
	// accounting for blank rows that were skipped.
	Lines []int
}

// ReadTable decodes r according to format. Blank rows are skipped but keep
// their place in row numbering.
func ReadTable(r io.Reader, format Format, dataset string) (*Table, error) {
	var (
		raw [][]string
		err error
	)
	switch format {
	case FormatCSV:
		raw, err = readCSV(r)
	case FormatXLSX:
		raw, err = readXLSX(r)
	default:
		return nil, &InputError{Dataset: dataset, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
	}
	if err != nil {
		return nil, &InputError{Dataset: dataset, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}

	if len(raw) == 0 {
		return nil, &InputError{Dataset: dataset, Err: ErrEmptyDataset}
	}

	t := &Table{Dataset: dataset, Header: normalizeHeader(raw[0])}
	for i, row := range raw[1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, i+1)
	}
	if len(t.Rows) == 0 {
		return nil, &InputError{Dataset: dataset, Err: ErrEmptyDataset}
	}
	return t, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnIndex resolves each canonical column to its header position,
// accepting any of its aliases.
func (t *Table) columnIndex(columns []column) (map[string]int, error) {
	pos := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, seen := pos[h]; !seen {
			pos[h] = i
		}
	}

	idx := make(map[string]int, len(columns))
	for _, c := range columns {
		found := false
		for _, name := range c.names() {
			if i, ok := pos[name]; ok {
				idx[c.Name] = i
				found = true
				break
			}
		}
		if !found {
			return nil, &InputError{Dataset: t.Dataset, Column: c.Name, Err: ErrMissingColumn}
		}
	}
	return idx, nil
}

// cell returns the trimmed value at col, or "" when the row is short.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
