package pipeline

import (
	"time"

	"github.com/andresuchdata/slotx-reports/internal/deals"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/refund"
	"github.com/andresuchdata/slotx-reports/internal/sheet"
)

// BranchTables are the raw exports uploaded for one physical branch.
// A nil table means the upload is missing.
type BranchTables struct {
	Sales     *sheet.Table
	Inventory *sheet.Table
}

// Request is one upload batch: the selected mode, the payout cycle and every
// table needed to build the archive.
type Request struct {
	Mode     domain.Branch
	Cycle    domain.PayoutCycle
	Branches map[domain.Branch]BranchTables
	Deals    deals.Book
}

// Config holds the generator settings that do not change between runs.
type Config struct {
	WorkerCount int              // concurrent workbook builds; <= 1 builds sequentially
	PoweredBy   string           // metadata "Powered by" line
	Version     string           // metadata "Version" line
	Clock       func() time.Time // stamps metadata and zip entries
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 1,
		PoweredBy:   "Slot-X Solutions",
		Version:     "v1.0",
		Clock:       time.Now,
	}
}

// Diagnostics counts everything a run absorbed instead of failing on.
type Diagnostics struct {
	Refunds             refund.Stats
	RowsRead            int
	BlankBrandRows      int
	DefaultedCells      int
	InventoryDropped    int
	MergeErrors         []domain.MergeError
	DealCollisions      int
	DealSheetFallbacks  int // branch deal sheets missing in merged mode
	OrphanedBranchSales int // single-branch brands that also sold in the other branch
	PathCollisions      int
	Classifications     map[string]int
	Entries             int
}

func (d *Diagnostics) classified(c domain.Classification) {
	if d.Classifications == nil {
		d.Classifications = make(map[string]int)
	}
	d.Classifications[c.String()]++
}

// Result is a finished archive.
type Result struct {
	FileName    string
	Archive     []byte
	Entries     []string
	Diagnostics Diagnostics
	GeneratedAt time.Time
}
