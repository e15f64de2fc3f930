// Package workbook renders brand and branch-summary reports as xlsx files.
// Totals are always taken from the aggregates passed in, never recomputed
// from the rows being listed.
package workbook

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/slotx-reports/internal/domain"
)

const (
	SheetSales       = "Sales"
	SheetInventory   = "Inventory"
	SheetReport      = "Report"
	SheetMetadata    = "Metadata"
	SheetPerformance = "Performance"

	moneyFormat     = "#,##0.00"
	moneyEGPFormat  = `#,##0.00 "EGP"`
	generatedLayout = "2006-01-02 15:04:05"
)

var statusColors = map[domain.ProductStatus]string{
	domain.StatusLowStock:   "FF4C4C",
	domain.StatusSlowMoving: "FFA500",
	domain.StatusNoDeal:     "9E9E9E",
	domain.StatusHealthy:    "2E7D32",
}

// Metadata is written to the last sheet of every workbook.
type Metadata struct {
	PoweredBy   string
	Version     string
	ReportType  string
	PayoutCycle domain.PayoutCycle
	GeneratedAt time.Time
}

type styles struct {
	header    int
	bold      int
	money     int
	card      int
	cardMoney int
	status    map[domain.ProductStatus]int
}

// writer wraps an excelize file and keeps the first error, so sheet builders
// can write row after row and check once at the end.
type writer struct {
	f      *excelize.File
	err    error
	style  styles
	widths map[string]map[int]int
}

func newWriter(first string) *writer {
	w := &writer{f: excelize.NewFile(), widths: make(map[string]map[int]int)}
	w.check(w.f.SetSheetName("Sheet1", first))
	w.initStyles()
	return w
}

func (w *writer) check(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *writer) newStyle(s *excelize.Style) int {
	id, err := w.f.NewStyle(s)
	w.check(err)
	return id
}

func (w *writer) initStyles() {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	moneyFmt := moneyFormat
	egpFmt := moneyEGPFormat

	w.style.header = w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	w.style.bold = w.newStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	w.style.money = w.newStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	w.style.card = w.newStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"0A1F5C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	w.style.cardMoney = w.newStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"0A1F5C"}, Pattern: 1},
		Alignment:    &excelize.Alignment{Horizontal: "center"},
		CustomNumFmt: &egpFmt,
	})
	w.style.status = make(map[domain.ProductStatus]int, len(statusColors))
	for status, color := range statusColors {
		w.style.status[status] = w.newStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
	}
}

func (w *writer) sheet(name string) {
	_, err := w.f.NewSheet(name)
	w.check(err)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// row writes values starting at column A and tracks column widths.
func (w *writer) row(sheet string, row int, values ...interface{}) {
	w.check(w.f.SetSheetRow(sheet, cellName(1, row), &values))
	cols := w.widths[sheet]
	if cols == nil {
		cols = make(map[int]int)
		w.widths[sheet] = cols
	}
	for i, v := range values {
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > cols[i+1] {
			cols[i+1] = n
		}
	}
}

func (w *writer) styleRange(sheet string, fromCol, fromRow, toCol, toRow, style int) {
	w.check(w.f.SetCellStyle(sheet, cellName(fromCol, fromRow), cellName(toCol, toRow), style))
}

func (w *writer) header(sheet string, headers ...interface{}) {
	w.row(sheet, 1, headers...)
	w.styleRange(sheet, 1, 1, len(headers), 1, w.style.header)
	w.check(w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}))
}

// autoFit sizes every written column to its longest value, within 12..50.
func (w *writer) autoFit(sheet string) {
	for col, n := range w.widths[sheet] {
		width := n + 3
		if width < 12 {
			width = 12
		}
		if width > 50 {
			width = 50
		}
		name, err := excelize.ColumnNumberToName(col)
		w.check(err)
		if err == nil {
			w.check(w.f.SetColWidth(sheet, name, name, float64(width)))
		}
	}
}

func (w *writer) metadata(m Metadata) {
	w.sheet(SheetMetadata)
	rows := [][]interface{}{
		{"Powered by:", m.PoweredBy},
		{"Version:", m.Version},
		{"Report Type:", m.ReportType},
		{"Payout Cycle:", string(m.PayoutCycle)},
		{"Generated At:", m.GeneratedAt.Format(generatedLayout)},
	}
	for i, r := range rows {
		w.row(SheetMetadata, i+1, r...)
	}
	w.styleRange(SheetMetadata, 1, 1, 1, len(rows), w.style.bold)
	w.autoFit(SheetMetadata)
}

func (w *writer) bytes() ([]byte, error) {
	defer w.f.Close()
	if w.err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", w.err)
	}
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// money converts a decimal for display. Exact values stay in the aggregates;
// the cell only needs to show two places.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// formatMoney renders d with thousands separators and two decimals.
//
//	formatMoney(1234567.5) == "1,234,567.50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
