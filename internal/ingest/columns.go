// Package ingest maps heterogeneous export headers onto canonical columns and
// parses the rows into typed sales and inventory records.
package ingest

import (
	"strings"
	"unicode"

	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/sheet"
)

// Kind selects the alias set a table is resolved against.
type Kind string

const (
	KindSales     Kind = "sales"
	KindInventory Kind = "inventory"
)

// Column is a canonical column name.
type Column string

const (
	ColBrand             Column = "brand"
	ColProductName       Column = "product_name"
	ColBarcode           Column = "barcode"
	ColQuantity          Column = "quantity"
	ColTotal             Column = "total"
	ColUnitPrice         Column = "unit_price"
	ColAvailableQuantity Column = "available_quantity"
)

type columnAliases struct {
	column  Column
	aliases []string
}

// Alias order matters: the first alias found in the header wins.
var aliasSets = map[Kind][]columnAliases{
	KindSales: {
		{ColBrand, []string{"brand", "brand_name"}},
		{ColProductName, []string{"product_name", "name_en", "name_ar", "product"}},
		{ColBarcode, []string{"barcode", "barcodes", "sku", "code"}},
		{ColQuantity, []string{"quantity", "qty"}},
		{ColTotal, []string{"total", "total_price", "amount"}},
	},
	KindInventory: {
		{ColBrand, []string{"brand", "brand_name"}},
		{ColProductName, []string{"product_name", "name_en", "name_ar", "product"}},
		{ColBarcode, []string{"barcode", "barcodes", "sku", "code"}},
		{ColUnitPrice, []string{"unit_price", "sale_price", "price"}},
		{ColAvailableQuantity, []string{"available_quantity", "qty", "stock", "quantity"}},
	},
}

// Mapping is the header index of every canonical column.
type Mapping map[Column]int

// NormalizeHeader lowercases a header and collapses every run of
// non-alphanumerics into a single underscore.
//
//	NormalizeHeader(" Brand Name ") == "brand_name"
func NormalizeHeader(h string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Resolve finds every canonical column of kind in the table header. Each
// header column can satisfy one canonical column only. A column none of
// whose aliases match fails the run with a SchemaError.
func Resolve(t sheet.Table, kind Kind) (Mapping, error) {
	sets, ok := aliasSets[kind]
	if !ok {
		return nil, &domain.SchemaError{Table: t.Label(), Column: string(kind)}
	}

	normalized := make([]string, len(t.Header))
	for i, h := range t.Header {
		normalized[i] = NormalizeHeader(h)
	}

	claimed := make(map[int]bool, len(sets))
	colIndex := func(aliases ...string) int {
		for _, alias := range aliases {
			for i, h := range normalized {
				if h == alias && !claimed[i] {
					return i
				}
			}
		}
		return -1
	}

	m := make(Mapping, len(sets))
	for _, set := range sets {
		idx := colIndex(set.aliases...)
		if idx < 0 {
			return nil, &domain.SchemaError{Table: t.Label(), Column: string(set.column), Aliases: set.aliases}
		}
		claimed[idx] = true
		m[set.column] = idx
	}

	return m, nil
}
