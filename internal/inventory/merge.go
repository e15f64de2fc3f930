// Package inventory combines one brand's Alexandria and Zamalek stock into a
// single product list with per-branch quantities.
package inventory

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
)

// Result is the merged product list for one brand.
type Result struct {
	Rows    []domain.MergedInventoryRecord
	Errors  []domain.MergeError
	Dropped int
}

// Lines returns the rows in the shape the report layer consumes.
func (r Result) Lines() []domain.InventoryLine {
	lines := make([]domain.InventoryLine, len(r.Rows))
	for i, row := range r.Rows {
		lines[i] = row.Line()
	}
	return lines
}

type product struct {
	brand   brand.Identity
	name    string
	barcode string
	price   decimal.Decimal
	qty     int64
	joined  bool
}

func (p *product) nameKey() string {
	return normalizeName(p.name) + "|" + p.price.String()
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// consolidate sums same-branch rows that describe the same product, keyed by
// barcode when present and by (name, price) otherwise. Rows with neither
// barcode nor name cannot be keyed and are reported.
func consolidate(records []domain.InventoryRecord, res *Result) []*product {
	var out []*product
	byKey := make(map[string]*product)
	for _, r := range records {
		barcode := strings.TrimSpace(r.Barcode)
		name := strings.TrimSpace(r.ProductName)
		if barcode == "" && name == "" {
			merr := domain.MergeError{
				Brand:  r.Brand.Display,
				Branch: r.Branch,
				Row:    r.Row,
				Reason: "no barcode and no product name",
			}
			res.Errors = append(res.Errors, merr)
			res.Dropped++
			log.Warn().Err(&merr).Msg("Skipping inventory row")
			continue
		}

		p := &product{brand: r.Brand, name: name, barcode: barcode, price: r.UnitPrice, qty: r.AvailableQuantity}
		key := "b:" + barcode
		if barcode == "" {
			key = "n:" + p.nameKey()
		}
		if existing, ok := byKey[key]; ok {
			existing.qty += p.qty
			continue
		}
		byKey[key] = p
		out = append(out, p)
	}
	return out
}

// Merge full-outer-joins the two branch inventories of one brand. Products
// join on barcode when both sides carry one, otherwise on normalized product
// name plus unit price. A product missing from a branch gets quantity 0 there,
// and AvailableQuantity is always the sum of both branch quantities.
func Merge(alex, zamalek []domain.InventoryRecord) Result {
	var res Result
	left := consolidate(alex, &res)
	right := consolidate(zamalek, &res)

	byBarcode := make(map[string]*product, len(left))
	byName := make(map[string][]*product, len(left))
	for _, p := range left {
		if p.barcode != "" {
			byBarcode[p.barcode] = p
		}
		byName[p.nameKey()] = append(byName[p.nameKey()], p)
	}

	// Zamalek quantity per Alexandria product.
	zamQty := make(map[*product]int64, len(left))
	var unmatched []*product
	for _, z := range right {
		match := findMatch(z, byBarcode, byName)
		if match == nil {
			unmatched = append(unmatched, z)
			continue
		}
		match.joined = true
		zamQty[match] += z.qty
		if match.barcode == "" {
			match.barcode = z.barcode
		}
	}

	res.Rows = make([]domain.MergedInventoryRecord, 0, len(left)+len(unmatched))
	for _, p := range left {
		res.Rows = append(res.Rows, record(p, p.qty, zamQty[p]))
	}
	for _, z := range unmatched {
		res.Rows = append(res.Rows, record(z, 0, z.qty))
	}

	return res
}

func findMatch(z *product, byBarcode map[string]*product, byName map[string][]*product) *product {
	if z.barcode != "" {
		if p, ok := byBarcode[z.barcode]; ok {
			return p
		}
	}
	for _, p := range byName[z.nameKey()] {
		if p.joined {
			continue
		}
		// Two barcoded rows that differ are different products even when
		// name and price agree.
		if z.barcode != "" && p.barcode != "" {
			continue
		}
		return p
	}
	return nil
}

func record(p *product, alexQty, zamQty int64) domain.MergedInventoryRecord {
	return domain.MergedInventoryRecord{
		Brand:             p.brand,
		ProductName:       p.name,
		Barcode:           p.barcode,
		UnitPrice:         p.price,
		AlexQty:           alexQty,
		ZamalekQty:        zamQty,
		AvailableQuantity: alexQty + zamQty,
	}
}
