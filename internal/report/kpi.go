package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
)

// topByQuantity returns the label with the highest summed quantity. Ties go
// to the label seen first.
func topByQuantity(sales []domain.SalesRecord, label func(domain.SalesRecord) string) string {
	totals := make(map[string]int64)
	var order []string
	for _, s := range sales {
		l := label(s)
		if l == "" {
			continue
		}
		if _, ok := totals[l]; !ok {
			order = append(order, l)
		}
		totals[l] += s.Quantity
	}

	best := ""
	var bestQty int64
	for _, l := range order {
		if best == "" || totals[l] > bestQty {
			best, bestQty = l, totals[l]
		}
	}
	return best
}

// BestSellingProduct is the product name with the most units sold.
func BestSellingProduct(sales []domain.SalesRecord) string {
	return topByQuantity(sales, func(s domain.SalesRecord) string {
		return strings.TrimSpace(s.ProductName)
	})
}

// BestSellingSize is the size, read as the text after the last "-" of the
// product name, with the most units sold.
//
//	"Tshirt - L" -> "L"
func BestSellingSize(sales []domain.SalesRecord) string {
	return topByQuantity(sales, func(s domain.SalesRecord) string {
		i := strings.LastIndex(s.ProductName, "-")
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(s.ProductName[i+1:])
	})
}

// SoldByBarcode sums units sold per barcode.
func SoldByBarcode(sales []domain.SalesRecord) map[string]int64 {
	out := make(map[string]int64)
	for _, s := range sales {
		if s.Barcode != "" {
			out[s.Barcode] += s.Quantity
		}
	}
	return out
}

// ProductStatuses flags every inventory line using the units sold under its
// barcode.
func ProductStatuses(lines []domain.InventoryLine, sales []domain.SalesRecord, hasDeal bool) []domain.ProductStatus {
	sold := SoldByBarcode(sales)
	out := make([]domain.ProductStatus, len(lines))
	for i, l := range lines {
		out[i] = domain.ProductStatusFor(sold[l.Barcode], l.AvailableQuantity, hasDeal)
	}
	return out
}

// SummaryRow is one ranked line of a branch performance table.
type SummaryRow struct {
	Rank      int
	Aggregate domain.BrandAggregate
}

// BranchSummary is the performance overview of one branch run.
type BranchSummary struct {
	Branch          domain.Branch
	TotalSales      decimal.Decimal
	AfterDeductions decimal.Decimal
	Rows            []SummaryRow
}

// Summarize aggregates every brand that appears in the branch's sales and
// ranks them by sales money, highest first. Inventory is attached to brands
// in that set; stock-only brands are left out.
func Summarize(branch domain.Branch, sales []domain.SalesRecord, inventory []domain.InventoryRecord, terms DealLookup) BranchSummary {
	catalog := brand.NewCatalog()
	salesBy := make(map[brand.Key][]domain.SalesRecord)
	for _, s := range sales {
		catalog.Add(s.Brand)
		salesBy[s.Brand.Key] = append(salesBy[s.Brand.Key], s)
	}
	invBy := make(map[brand.Key][]domain.InventoryLine)
	for _, r := range inventory {
		if _, ok := salesBy[r.Brand.Key]; ok {
			invBy[r.Brand.Key] = append(invBy[r.Brand.Key], r.Line())
		}
	}

	summary := BranchSummary{Branch: branch, TotalSales: decimal.Zero, AfterDeductions: decimal.Zero}
	for _, k := range catalog.Keys() {
		id, _ := catalog.Lookup(k)
		agg := Aggregate(BrandInput{
			Brand:      id,
			BranchType: branch,
			Sales:      salesBy[k],
			Inventory:  invBy[k],
			Deal:       terms.Lookup(k),
		})
		summary.TotalSales = summary.TotalSales.Add(agg.TotalSalesMoney)
		summary.AfterDeductions = summary.AfterDeductions.Add(agg.AfterRent)
		summary.Rows = append(summary.Rows, SummaryRow{Aggregate: agg})
	}

	sort.SliceStable(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].Aggregate.TotalSalesMoney.GreaterThan(summary.Rows[j].Aggregate.TotalSalesMoney)
	})
	for i := range summary.Rows {
		summary.Rows[i].Rank = i + 1
	}

	return summary
}
