// Package sheet reads uploaded spreadsheets into plain string tables.
package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/slotx-reports/internal/domain"
)

// Row is one data row with its 1-based position in the sheet.
type Row struct {
	Number int
	Cells  []string
}

// Get returns the trimmed cell at idx, or "" when the row is short.
func (r Row) Get(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[idx])
}

// Table is a header row plus the non-blank rows beneath it.
type Table struct {
	Source string
	Sheet  string
	Header []string
	Rows   []Row
}

// Label names the table in error messages.
func (t Table) Label() string {
	if t.Sheet == "" {
		return t.Source
	}
	return fmt.Sprintf("%s [%s]", t.Source, t.Sheet)
}

// Workbook wraps an opened xlsx file.
type Workbook struct {
	source string
	file   *excelize.File
}

// Open parses an xlsx stream. source names the upload in errors.
func Open(source string, r io.Reader) (*Workbook, error) {
	if r == nil {
		return nil, &domain.SourceError{Source: source}
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.SourceError{Source: source, Err: fmt.Errorf("failed to open xlsx: %w", err)}
	}
	return &Workbook{source: source, file: f}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) Source() string {
	return w.source
}

// SheetNames lists sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// HasSheet matches sheet names after trimming, case-insensitively.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.resolveSheet(name)
	return ok
}

func (w *Workbook) resolveSheet(name string) (string, bool) {
	want := strings.TrimSpace(name)
	for _, s := range w.file.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return s, true
		}
	}
	return "", false
}

// First reads the first sheet.
func (w *Workbook) First() (Table, error) {
	sheets := w.file.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, &domain.SourceError{Source: w.source, Err: fmt.Errorf("xlsx has no sheets")}
	}
	return w.read(sheets[0])
}

// Table reads the named sheet. A missing sheet is a SourceError.
func (w *Workbook) Table(name string) (Table, error) {
	sheet, ok := w.resolveSheet(name)
	if !ok {
		return Table{}, &domain.SourceError{Source: w.source, Sheet: name}
	}
	return w.read(sheet)
}

func (w *Workbook) read(sheet string) (Table, error) {
	rows, err := w.file.Rows(sheet)
	if err != nil {
		return Table{}, &domain.SourceError{Source: w.source, Sheet: sheet, Err: fmt.Errorf("failed to read rows: %w", err)}
	}
	defer rows.Close()

	t := Table{Source: w.source, Sheet: sheet}
	rowNum := 0
	for rows.Next() {
		rowNum++
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return Table{}, &domain.SourceError{Source: w.source, Sheet: sheet, Err: fmt.Errorf("failed to read row %d: %w", rowNum, err)}
		}
		if blank(record) {
			continue
		}
		if t.Header == nil {
			t.Header = make([]string, len(record))
			for i, h := range record {
				t.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		t.Rows = append(t.Rows, Row{Number: rowNum, Cells: record})
	}
	if err := rows.Error(); err != nil {
		return Table{}, &domain.SourceError{Source: w.source, Sheet: sheet, Err: fmt.Errorf("error iterating rows: %w", err)}
	}

	return t, nil
}

// ReadFirst opens r and returns its first sheet.
func ReadFirst(source string, r io.Reader) (Table, error) {
	wb, err := Open(source, r)
	if err != nil {
		return Table{}, err
	}
	defer wb.Close()

	return wb.First()
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
