package workbook

import (
	"fmt"

	"github.com/andresuchdata/slotx-reports/internal/report"
)

var performanceHeaders = []interface{}{
	"Rank", "Brand", "Sales Qty", "Sales Money", "After Percentage",
	"After Rent", "After All Deductions", "Inventory Qty", "Inventory Value",
}

const performanceHeaderRow = 5

// BuildSummary renders the branch Performance sheet followed by Metadata.
func BuildSummary(s report.BranchSummary, meta Metadata) ([]byte, error) {
	w := newWriter(SheetPerformance)

	w.check(w.f.SetCellValue(SheetPerformance, "A1", "Total Branch Sales"))
	w.check(w.f.SetCellValue(SheetPerformance, "A2", money(s.TotalSales)))
	w.check(w.f.SetCellValue(SheetPerformance, "C1", "Sales After All Deductions"))
	w.check(w.f.SetCellValue(SheetPerformance, "C2", money(s.AfterDeductions)))
	for _, col := range []int{1, 3} {
		w.styleRange(SheetPerformance, col, 1, col, 1, w.style.card)
		w.styleRange(SheetPerformance, col, 2, col, 2, w.style.cardMoney)
	}
	w.check(w.f.SetRowHeight(SheetPerformance, 1, 25))
	w.check(w.f.SetRowHeight(SheetPerformance, 2, 25))

	w.row(SheetPerformance, performanceHeaderRow, performanceHeaders...)
	w.styleRange(SheetPerformance, 1, performanceHeaderRow, len(performanceHeaders), performanceHeaderRow, w.style.header)

	row := performanceHeaderRow + 1
	for _, r := range s.Rows {
		agg := r.Aggregate
		w.row(SheetPerformance, row,
			r.Rank,
			agg.Brand.Display,
			agg.TotalSalesQty,
			money(agg.TotalSalesMoney),
			money(agg.AfterPercentage),
			money(agg.AfterRent),
			money(agg.AfterRent),
			agg.TotalInventoryQty,
			money(agg.TotalInventoryValue),
		)
		row++
	}
	if len(s.Rows) > 0 {
		w.styleRange(SheetPerformance, 4, performanceHeaderRow+1, 7, row-1, w.style.money)
		w.styleRange(SheetPerformance, 9, performanceHeaderRow+1, 9, row-1, w.style.money)
	}
	w.autoFit(SheetPerformance)

	w.metadata(meta)

	data, err := w.bytes()
	if err != nil {
		return nil, fmt.Errorf("%s summary: %w", s.Branch, err)
	}
	return data, nil
}
