// Package report computes per-brand totals, deal deductions and folder
// classification.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// DealLookup resolves a brand's terms from one deal sheet.
type DealLookup interface {
	Lookup(k brand.Key) domain.DealTerms
}

// BrandInput is one brand's cleaned rows for one branch view.
type BrandInput struct {
	Brand      brand.Identity
	BranchType domain.Branch
	Sales      []domain.SalesRecord
	Inventory  []domain.InventoryLine
	Deal       domain.DealTerms
}

// ApplyDeal deducts the percentage first and the rent second. Results are not
// clamped, so a rent larger than the sales yields a negative payout.
//
//	ApplyDeal(1000, 10, 50) == (900, 850)
func ApplyDeal(money, percentage, rent decimal.Decimal) (afterPercentage, afterRent decimal.Decimal) {
	afterPercentage = money.Sub(money.Mul(percentage).Div(hundred))
	afterRent = afterPercentage.Sub(rent)
	return afterPercentage, afterRent
}

// Aggregate sums the brand's sales and inventory and applies its deal.
func Aggregate(in BrandInput) domain.BrandAggregate {
	agg := domain.BrandAggregate{
		Brand:               in.Brand,
		BranchType:          in.BranchType,
		TotalSalesMoney:     decimal.Zero,
		TotalInventoryValue: decimal.Zero,
		Deal:                in.Deal,
	}
	for _, s := range in.Sales {
		agg.TotalSalesQty += s.Quantity
		agg.TotalSalesMoney = agg.TotalSalesMoney.Add(s.Total)
	}
	for _, l := range in.Inventory {
		agg.TotalInventoryQty += l.AvailableQuantity
		agg.TotalInventoryValue = agg.TotalInventoryValue.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.AvailableQuantity)))
	}

	agg.AfterPercentage, agg.AfterRent = ApplyDeal(agg.TotalSalesMoney, in.Deal.Percentage, in.Deal.Rent)
	return agg
}

// Classify picks the archive folder for a brand. Rules apply in order:
//
//  1. no sales and no stock: skipped
//  2. no sales, stock on hand, no deal: Empty Brand Guard
//  3. zero percentage and zero rent: No Deal
//  4. otherwise: Report
func Classify(agg domain.BrandAggregate) domain.Classification {
	noDeal := agg.Deal.IsZero()
	switch {
	case agg.TotalSalesQty == 0 && agg.TotalInventoryQty == 0:
		return domain.ClassificationSkip
	case agg.TotalSalesQty == 0 && agg.TotalInventoryQty > 0 && noDeal:
		return domain.ClassificationEmptyBrandGuard
	case noDeal:
		return domain.ClassificationNoDeal
	default:
		return domain.ClassificationReport
	}
}

// BranchActivity is a brand's stock and sales per physical branch, used to
// decide which view a merged run reports it under.
type BranchActivity struct {
	AlexInventory    int64
	ZamalekInventory int64
	AlexSales        int64
	ZamalekSales     int64
}

// AssignBranch decides the branch type of a brand in a merged run. Stock
// decides first: both branches stocked is Merged, one stocked is that branch.
// With no stock anywhere the branches with sales decide the same way. A brand
// with neither returns ok=false.
func AssignBranch(a BranchActivity) (domain.Branch, bool) {
	if b, ok := pick(a.AlexInventory > 0, a.ZamalekInventory > 0); ok {
		return b, true
	}
	return pick(a.AlexSales != 0, a.ZamalekSales != 0)
}

func pick(alex, zamalek bool) (domain.Branch, bool) {
	switch {
	case alex && zamalek:
		return domain.BranchMerged, true
	case alex:
		return domain.BranchAlexandria, true
	case zamalek:
		return domain.BranchZamalek, true
	}
	return "", false
}
