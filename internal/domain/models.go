// internal/domain/models.go
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/slotx-reports/internal/brand"
)

// Branch is a physical retail location, or the virtual Merged view that
// combines both. It doubles as the report mode and as a report's branch type.
type Branch string

const (
	BranchAlexandria Branch = "Alexandria"
	BranchZamalek    Branch = "Zamalek"
	BranchMerged     Branch = "Merged"
)

// Branches lists the physical branches in the order their tables are read.
var Branches = []Branch{BranchAlexandria, BranchZamalek}

// ParseMode resolves a mode selector (case-insensitive).
func ParseMode(s string) (Branch, error) {
	for _, b := range []Branch{BranchAlexandria, BranchZamalek, BranchMerged} {
		if strings.EqualFold(strings.TrimSpace(s), string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown report mode %q (want Alexandria, Zamalek or Merged)", s)
}

// PayoutCycle tags a billing period. It is carried into workbook metadata only.
type PayoutCycle string

const (
	CycleOne PayoutCycle = "Cycle 1"
	CycleTwo PayoutCycle = "Cycle 2"
)

// ParsePayoutCycle accepts "Cycle 1", "cycle1", "1" and the like.
func ParsePayoutCycle(s string) (PayoutCycle, error) {
	compact := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch compact {
	case "cycle1", "1":
		return CycleOne, nil
	case "cycle2", "2":
		return CycleTwo, nil
	}
	return "", fmt.Errorf("unknown payout cycle %q (want Cycle 1 or Cycle 2)", s)
}

// SalesRecord is one row of a branch sales export.
type SalesRecord struct {
	Branch      Branch
	Brand       brand.Identity
	ProductName string
	Barcode     string
	Quantity    int64 // negative only for refunds, removed before aggregation
	Total       decimal.Decimal
	Row         int // 1-based sheet row
}

// InventoryRecord is one row of a branch inventory export.
type InventoryRecord struct {
	Branch            Branch
	Brand             brand.Identity
	ProductName       string
	Barcode           string
	UnitPrice         decimal.Decimal
	AvailableQuantity int64
	Row               int
}

// Line projects the record onto the shape the aggregator and workbook use.
func (r InventoryRecord) Line() InventoryLine {
	line := InventoryLine{
		ProductName:       r.ProductName,
		Barcode:           r.Barcode,
		UnitPrice:         r.UnitPrice,
		AvailableQuantity: r.AvailableQuantity,
	}
	switch r.Branch {
	case BranchAlexandria:
		line.AlexQty = r.AvailableQuantity
	case BranchZamalek:
		line.ZamalekQty = r.AvailableQuantity
	}
	return line
}

// MergedInventoryRecord is a product present in either branch, with both
// branch quantities filled in (zero when the branch lacks the product).
type MergedInventoryRecord struct {
	Brand             brand.Identity
	ProductName       string
	Barcode           string
	UnitPrice         decimal.Decimal
	AlexQty           int64
	ZamalekQty        int64
	AvailableQuantity int64 // always AlexQty + ZamalekQty
}

func (r MergedInventoryRecord) Line() InventoryLine {
	return InventoryLine{
		ProductName:       r.ProductName,
		Barcode:           r.Barcode,
		UnitPrice:         r.UnitPrice,
		AvailableQuantity: r.AvailableQuantity,
		AlexQty:           r.AlexQty,
		ZamalekQty:        r.ZamalekQty,
		Split:             true,
	}
}

// InventoryLine is an inventory row as reported for one brand. Split marks
// lines whose per-branch quantities come from a merge.
type InventoryLine struct {
	ProductName       string
	Barcode           string
	UnitPrice         decimal.Decimal
	AvailableQuantity int64
	AlexQty           int64
	ZamalekQty        int64
	Split             bool
}

// DealTerms are the commission and rent applied to a brand's sales.
// Found is false when the brand has no row in the deal sheet.
type DealTerms struct {
	Brand      brand.Key
	Percentage decimal.Decimal
	Rent       decimal.Decimal
	Found      bool
}

// IsZero reports whether the terms amount to "no deal": absent, or an
// explicit zero percentage and zero rent.
func (d DealTerms) IsZero() bool {
	return d.Percentage.IsZero() && d.Rent.IsZero()
}

// BrandAggregate holds the computed totals for one brand in one branch view.
// It is built once per generation and never mutated.
type BrandAggregate struct {
	Brand               brand.Identity
	BranchType          Branch
	TotalSalesQty       int64
	TotalSalesMoney     decimal.Decimal
	TotalInventoryQty   int64
	TotalInventoryValue decimal.Decimal
	Deal                DealTerms
	AfterPercentage     decimal.Decimal
	AfterRent           decimal.Decimal
}
