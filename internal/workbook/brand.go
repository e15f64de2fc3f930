package workbook

import (
	"fmt"

	"github.com/andresuchdata/slotx-reports/internal/deals"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/report"
)

// BrandInput is everything rendered into one brand workbook.
type BrandInput struct {
	Aggregate domain.BrandAggregate
	Sales     []domain.SalesRecord
	Inventory []domain.InventoryLine
	Meta      Metadata
}

// BuildBrand renders the Sales, Inventory, Report and Metadata sheets for one
// brand and returns the serialized xlsx.
func BuildBrand(in BrandInput) ([]byte, error) {
	w := newWriter(SheetSales)
	writeSales(w, in)
	writeInventory(w, in)
	writeReport(w, in)
	w.metadata(in.Meta)

	data, err := w.bytes()
	if err != nil {
		return nil, fmt.Errorf("brand %s: %w", in.Aggregate.Brand.Display, err)
	}
	return data, nil
}

func writeSales(w *writer, in BrandInput) {
	agg := in.Aggregate
	w.header(SheetSales, "Branch Name", "Brand Name", "Product Name", "Barcode", "Quantity", "Total Price")

	row := 2
	for _, s := range in.Sales {
		w.row(SheetSales, row, string(s.Branch), agg.Brand.Display, s.ProductName, s.Barcode, s.Quantity, money(s.Total))
		row++
	}
	w.row(SheetSales, row, "", "", "", "TOTAL", agg.TotalSalesQty, money(agg.TotalSalesMoney))
	w.styleRange(SheetSales, 1, row, 6, row, w.style.bold)
	if row > 2 {
		w.styleRange(SheetSales, 6, 2, 6, row-1, w.style.money)
	}
	w.autoFit(SheetSales)
}

func splitInventory(lines []domain.InventoryLine) bool {
	for _, l := range lines {
		if l.Split {
			return true
		}
	}
	return false
}

func writeInventory(w *writer, in BrandInput) {
	agg := in.Aggregate
	w.sheet(SheetInventory)

	split := splitInventory(in.Inventory)
	headers := []interface{}{"Branch Name", "Brand Name", "Product Name", "Barcode", "Unit Price"}
	if split {
		headers = append(headers, "Alex Qty", "Zamalek Qty")
	}
	headers = append(headers, "Available Quantity", "Status")
	w.header(SheetInventory, headers...)
	statusCol := len(headers)

	statuses := report.ProductStatuses(in.Inventory, in.Sales, !agg.Deal.IsZero())
	for i, l := range in.Inventory {
		row := i + 2
		values := []interface{}{string(agg.BranchType), agg.Brand.Display, l.ProductName, l.Barcode, money(l.UnitPrice)}
		if split {
			values = append(values, l.AlexQty, l.ZamalekQty)
		}
		values = append(values, l.AvailableQuantity, string(statuses[i]))
		w.row(SheetInventory, row, values...)
		w.styleRange(SheetInventory, 5, row, 5, row, w.style.money)
		w.styleRange(SheetInventory, statusCol, row, statusCol, row, w.style.status[statuses[i]])
	}
	w.autoFit(SheetInventory)
}

func writeReport(w *writer, in BrandInput) {
	agg := in.Aggregate
	w.sheet(SheetReport)

	cards := []struct {
		col   int
		title string
		value string
	}{
		{2, "Total Sales", formatMoney(agg.TotalSalesMoney) + " EGP"},
		{4, "Net After Deal", formatMoney(agg.AfterRent) + " EGP"},
		{7, "Inventory Units", fmt.Sprintf("%d", agg.TotalInventoryQty)},
	}
	for _, c := range cards {
		cell := cellName(c.col, 1)
		w.check(w.f.SetCellValue(SheetReport, cell, c.title+"\n"+c.value))
		w.styleRange(SheetReport, c.col, 1, c.col, 1, w.style.card)
		w.check(w.f.SetColWidth(SheetReport, cell[:1], cell[:1], 22))
	}
	for _, col := range []string{"A", "C", "E", "F"} {
		w.check(w.f.SetColWidth(SheetReport, col, col, 5))
	}
	w.check(w.f.SetRowHeight(SheetReport, 1, 45))

	details := [][]interface{}{
		{"Brand", agg.Brand.Display},
		{"Branch", string(agg.BranchType)},
		{"Payout Cycle", string(in.Meta.PayoutCycle)},
		{"Deal", deals.Text(agg.Deal)},
		{"Total Sales Qty", agg.TotalSalesQty},
		{"Total Sales", money(agg.TotalSalesMoney)},
		{"After Percentage", money(agg.AfterPercentage)},
		{"After Rent", money(agg.AfterRent)},
		{"Inventory Qty", agg.TotalInventoryQty},
		{"Inventory Value", money(agg.TotalInventoryValue)},
		{"Best Selling Product", report.BestSellingProduct(in.Sales)},
		{"Best Selling Size", report.BestSellingSize(in.Sales)},
	}
	const first = 3
	for i, d := range details {
		w.check(w.f.SetCellValue(SheetReport, cellName(2, first+i), d[0]))
		w.check(w.f.SetCellValue(SheetReport, cellName(4, first+i), d[1]))
	}
	w.styleRange(SheetReport, 2, first, 2, first+len(details)-1, w.style.bold)
}
