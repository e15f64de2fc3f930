package ingest

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/sheet"
)

// Stats counts what parsing absorbed instead of failing.
type Stats struct {
	Rows       int // data rows read
	BlankBrand int // rows dropped for having no brand
	Defaulted  int // numeric cells that could not be parsed, or fractional quantities, that became 0
}

func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.BlankBrand += o.BlankBrand
	s.Defaulted += o.Defaulted
}

type rowParser struct {
	table sheet.Table
	stats *Stats
}

func (p rowParser) decimal(row sheet.Row, idx int, col Column) decimal.Decimal {
	cell := row.Get(idx)
	d, ok := sheet.Decimal(cell)
	if !ok {
		p.stats.Defaulted++
		log.Warn().
			Str("table", p.table.Label()).
			Int("row", row.Number).
			Str("column", string(col)).
			Str("value", cell).
			Msg("Unparseable number, using 0")
	}
	return d
}

func (p rowParser) int(row sheet.Row, idx int, col Column) int64 {
	cell := row.Get(idx)
	n, ok := sheet.Int(cell)
	if !ok {
		p.stats.Defaulted++
		log.Warn().
			Str("table", p.table.Label()).
			Int("row", row.Number).
			Str("column", string(col)).
			Str("value", cell).
			Msg("Invalid quantity, using 0")
	}
	return n
}

// Sales resolves and parses a branch sales table. Rows without a brand are
// dropped.
func Sales(t sheet.Table, branch domain.Branch) ([]domain.SalesRecord, Stats, error) {
	var stats Stats
	m, err := Resolve(t, KindSales)
	if err != nil {
		return nil, stats, err
	}

	p := rowParser{table: t, stats: &stats}
	records := make([]domain.SalesRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		stats.Rows++
		id := brand.NewIdentity(sheet.Text(row.Get(m[ColBrand])))
		if id.Empty() {
			stats.BlankBrand++
			continue
		}
		records = append(records, domain.SalesRecord{
			Branch:      branch,
			Brand:       id,
			ProductName: sheet.Text(row.Get(m[ColProductName])),
			Barcode:     sheet.Text(row.Get(m[ColBarcode])),
			Quantity:    p.int(row, m[ColQuantity], ColQuantity),
			Total:       p.decimal(row, m[ColTotal], ColTotal),
			Row:         row.Number,
		})
	}

	return records, stats, nil
}

// Inventory resolves and parses a branch inventory table. Negative prices
// and quantities are treated as unparseable and become 0.
func Inventory(t sheet.Table, branch domain.Branch) ([]domain.InventoryRecord, Stats, error) {
	var stats Stats
	m, err := Resolve(t, KindInventory)
	if err != nil {
		return nil, stats, err
	}

	p := rowParser{table: t, stats: &stats}
	records := make([]domain.InventoryRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		stats.Rows++
		id := brand.NewIdentity(sheet.Text(row.Get(m[ColBrand])))
		if id.Empty() {
			stats.BlankBrand++
			continue
		}

		price := p.decimal(row, m[ColUnitPrice], ColUnitPrice)
		if price.IsNegative() {
			stats.Defaulted++
			price = decimal.Zero
		}
		qty := p.int(row, m[ColAvailableQuantity], ColAvailableQuantity)
		if qty < 0 {
			stats.Defaulted++
			qty = 0
		}

		records = append(records, domain.InventoryRecord{
			Branch:            branch,
			Brand:             id,
			ProductName:       sheet.Text(row.Get(m[ColProductName])),
			Barcode:           sheet.Text(row.Get(m[ColBarcode])),
			UnitPrice:         price,
			AvailableQuantity: qty,
			Row:               row.Number,
		})
	}

	return records, stats, nil
}
