// Package deals loads commission and rent terms per brand from the deals
// workbook.
package deals

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/sheet"
)

const (
	HeaderBrand      = "Brand Name"
	HeaderPercentage = "Deal Percentage (%)"
	HeaderRent       = "Rent Amount (EGP)"
)

var maxPercentage = decimal.NewFromInt(100)

// Collision records a brand key defined by more than one row. The later row
// replaced the earlier one.
type Collision struct {
	Brand     brand.Key
	FirstRow  int
	SecondRow int
}

// Table is the set of deal terms from one sheet.
type Table struct {
	Sheet      string
	terms      map[brand.Key]domain.DealTerms
	Collisions []Collision
	Defaulted  int // blank, non-numeric or out-of-range values replaced by 0
}

// NewTable builds a table from terms keyed by their Brand field.
func NewTable(sheetName string, terms ...domain.DealTerms) Table {
	t := Table{Sheet: sheetName, terms: make(map[brand.Key]domain.DealTerms, len(terms))}
	for _, d := range terms {
		d.Found = true
		t.terms[d.Brand] = d
	}
	return t
}

// Lookup returns the brand's terms. A brand without a row gets zero terms
// with Found unset.
func (t Table) Lookup(k brand.Key) domain.DealTerms {
	if d, ok := t.terms[k]; ok {
		return d
	}
	return domain.DealTerms{Brand: k, Percentage: decimal.Zero, Rent: decimal.Zero}
}

// Has reports whether the sheet carries a row for the brand.
func (t Table) Has(k brand.Key) bool {
	_, ok := t.terms[k]
	return ok
}

func (t Table) Len() int {
	return len(t.terms)
}

// Book is a workbook whose sheets can be read by name. *sheet.Workbook
// satisfies it.
type Book interface {
	Table(name string) (sheet.Table, error)
}

// Load reads the deal terms sheet from book. A missing sheet is a
// SourceError; a missing required header is a SchemaError.
func Load(book Book, sheetName string) (Table, error) {
	raw, err := book.Table(sheetName)
	if err != nil {
		return Table{}, err
	}
	return FromTable(raw)
}

// FromTable parses an already-read deals sheet.
func FromTable(raw sheet.Table) (Table, error) {
	idx := func(name string) int {
		for i, h := range raw.Header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	cols := make(map[string]int, 3)
	for _, name := range []string{HeaderBrand, HeaderPercentage, HeaderRent} {
		i := idx(name)
		if i < 0 {
			return Table{}, &domain.SchemaError{
				Table:   fmt.Sprintf("deals sheet %q", raw.Sheet),
				Column:  name,
				Aliases: []string{name},
			}
		}
		cols[name] = i
	}

	t := Table{Sheet: raw.Sheet, terms: make(map[brand.Key]domain.DealTerms)}
	rowOf := make(map[brand.Key]int)
	for _, row := range raw.Rows {
		key := brand.Normalize(sheet.Text(row.Get(cols[HeaderBrand])))
		if key == "" {
			continue
		}

		pct := t.value(raw.Sheet, row, cols[HeaderPercentage], HeaderPercentage)
		if pct.IsNegative() || pct.GreaterThan(maxPercentage) {
			t.reject(raw.Sheet, row, HeaderPercentage, pct)
			pct = decimal.Zero
		}
		rent := t.value(raw.Sheet, row, cols[HeaderRent], HeaderRent)
		if rent.IsNegative() {
			t.reject(raw.Sheet, row, HeaderRent, rent)
			rent = decimal.Zero
		}

		if prev, ok := rowOf[key]; ok {
			t.Collisions = append(t.Collisions, Collision{Brand: key, FirstRow: prev, SecondRow: row.Number})
			log.Warn().
				Str("sheet", raw.Sheet).
				Str("brand", string(key)).
				Int("first_row", prev).
				Int("second_row", row.Number).
				Msg("Duplicate deal row for brand, later row wins")
		}
		rowOf[key] = row.Number
		t.terms[key] = domain.DealTerms{Brand: key, Percentage: pct, Rent: rent, Found: true}
	}

	log.Debug().
		Str("sheet", raw.Sheet).
		Int("brands", len(t.terms)).
		Int("collisions", len(t.Collisions)).
		Msg("Loaded deal terms")

	return t, nil
}

func (t *Table) value(sheetName string, row sheet.Row, idx int, col string) decimal.Decimal {
	cell := row.Get(idx)
	d, ok := sheet.Decimal(cell)
	if !ok {
		t.Defaulted++
		log.Warn().
			Str("sheet", sheetName).
			Int("row", row.Number).
			Str("column", col).
			Str("value", cell).
			Msg("Non-numeric deal value, using 0")
	}
	return d
}

func (t *Table) reject(sheetName string, row sheet.Row, col string, v decimal.Decimal) {
	t.Defaulted++
	log.Warn().
		Str("sheet", sheetName).
		Int("row", row.Number).
		Str("column", col).
		Str("value", v.String()).
		Msg("Deal value out of range, using 0")
}

// Text renders the terms the way the report sheet shows them.
func Text(d domain.DealTerms) string {
	hasPct := d.Percentage.IsPositive()
	hasRent := d.Rent.IsPositive()
	switch {
	case hasPct && hasRent:
		return fmt.Sprintf("%s%% + %s EGP Deducted from the sales", d.Percentage.String(), d.Rent.String())
	case hasPct:
		return fmt.Sprintf("%s%% Deducted from the sales", d.Percentage.String())
	case hasRent:
		return fmt.Sprintf("%s EGP Deducted from the sales", d.Rent.String())
	default:
		return "No Deal"
	}
}
