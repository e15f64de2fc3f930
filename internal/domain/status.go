package domain

// Classification decides which archive folder, if any, a brand lands in.
type Classification int

const (
	ClassificationSkip Classification = iota
	ClassificationReport
	ClassificationNoDeal
	ClassificationEmptyBrandGuard
)

var classificationLabels = map[Classification]string{
	ClassificationSkip:            "Skip",
	ClassificationReport:          "Report",
	ClassificationNoDeal:          "No Deal",
	ClassificationEmptyBrandGuard: "Empty Brand Guard",
}

func (c Classification) String() string {
	if label, ok := classificationLabels[c]; ok {
		return label
	}

	return "Unknown"
}

// ProductStatus is the per-product health flag shown in the inventory sheet.
type ProductStatus string

const (
	StatusLowStock   ProductStatus = "Low Stock"
	StatusSlowMoving ProductStatus = "Slow Moving"
	StatusNoDeal     ProductStatus = "No Deal"
	StatusHealthy    ProductStatus = "Healthy"
)

const (
	lowStockThreshold = 5
	slowMovingMaxSold = 3
)

// ProductStatusFor classifies one inventory line given the units sold for it
// and whether the brand carries a deal.
func ProductStatusFor(salesQty, inventoryQty int64, hasDeal bool) ProductStatus {
	if inventoryQty < lowStockThreshold {
		return StatusLowStock
	}
	if salesQty <= slowMovingMaxSold {
		return StatusSlowMoving
	}
	if !hasDeal {
		return StatusNoDeal
	}

	return StatusHealthy
}
