// Package pipeline turns one upload batch into the reports archive.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/slotx-reports/internal/archive"
	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/inventory"
	"github.com/andresuchdata/slotx-reports/internal/report"
)

// Generator coordinates one generation: prepare, plan every brand, build the
// workbooks and package the archive.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator. Zero fields fall back to DefaultConfig.
func NewGenerator(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.PoweredBy == "" {
		cfg.PoweredBy = def.PoweredBy
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	return &Generator{cfg: cfg}
}

// Generate runs the whole batch. Fatal input errors abort before any workbook
// is built; per-row problems are absorbed and counted in the diagnostics.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startTime := time.Now()
	now := g.cfg.Clock()

	var diag Diagnostics
	rc, err := Prepare(req, &diag)
	if err != nil {
		return nil, err
	}

	jobs := plan(rc, &diag)
	log.Info().
		Str("mode", string(rc.Mode)).
		Str("cycle", string(rc.Cycle)).
		Int("brands", rc.Catalog.Len()).
		Int("workbooks", len(jobs)).
		Msg("Planned report generation")

	built, err := g.render(ctx, rc, jobs, now)
	if err != nil {
		return nil, err
	}

	w := archive.NewWriter(now)
	entries := make([]string, 0, len(jobs))
	for i, j := range jobs {
		stored, err := w.Add(j.path, built[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, stored)
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	diag.PathCollisions = w.Collisions()
	diag.Entries = len(entries)

	log.Info().
		Str("mode", string(rc.Mode)).
		Int("entries", diag.Entries).
		Int("refunds_matched", diag.Refunds.Matched).
		Int("refunds_orphaned", diag.Refunds.Orphans).
		Int("inventory_dropped", diag.InventoryDropped).
		Int("cells_defaulted", diag.DefaultedCells).
		Int("path_collisions", diag.PathCollisions).
		Dur("duration", time.Since(startTime)).
		Msg("Report archive generated")

	return &Result{
		FileName:    archive.FileName(rc.Mode, rc.Cycle),
		Archive:     data,
		Entries:     entries,
		Diagnostics: diag,
		GeneratedAt: now,
	}, nil
}

// job is one workbook to build and where it goes in the archive.
type job struct {
	path    string
	brand   *report.BrandInput
	agg     domain.BrandAggregate
	summary *report.BranchSummary
}

type brandRows struct {
	sales     map[domain.Branch][]domain.SalesRecord
	inventory map[domain.Branch][]domain.InventoryRecord
}

func groupByBrand(rc *RunContext) map[brand.Key]*brandRows {
	out := make(map[brand.Key]*brandRows, rc.Catalog.Len())
	get := func(k brand.Key) *brandRows {
		r, ok := out[k]
		if !ok {
			r = &brandRows{
				sales:     make(map[domain.Branch][]domain.SalesRecord),
				inventory: make(map[domain.Branch][]domain.InventoryRecord),
			}
			out[k] = r
		}
		return r
	}
	for b, sales := range rc.Sales {
		for _, s := range sales {
			r := get(s.Brand.Key)
			r.sales[b] = append(r.sales[b], s)
		}
	}
	for b, inv := range rc.Inventory {
		for _, rec := range inv {
			r := get(rec.Brand.Key)
			r.inventory[b] = append(r.inventory[b], rec)
		}
	}
	return out
}

func lines(records []domain.InventoryRecord) []domain.InventoryLine {
	out := make([]domain.InventoryLine, len(records))
	for i, r := range records {
		out[i] = r.Line()
	}
	return out
}

func sumQty(records []domain.InventoryRecord) int64 {
	var n int64
	for _, r := range records {
		n += r.AvailableQuantity
	}
	return n
}

func sumSold(sales []domain.SalesRecord) int64 {
	var n int64
	for _, s := range sales {
		n += s.Quantity
	}
	return n
}

// plan builds the aggregate and archive path of every brand in canonical key
// order. Skipped brands produce no job.
func plan(rc *RunContext, diag *Diagnostics) []job {
	grouped := groupByBrand(rc)
	jobs := make([]job, 0, rc.Catalog.Len()+1)

	for _, k := range rc.Catalog.Keys() {
		id, _ := rc.Catalog.Lookup(k)
		rows := grouped[k]

		var in report.BrandInput
		var ok bool
		if rc.Mode == domain.BranchMerged {
			in, ok = mergedInput(rc, id, rows, diag)
		} else {
			in, ok = report.BrandInput{
				Brand:      id,
				BranchType: rc.Mode,
				Sales:      rows.sales[rc.Mode],
				Inventory:  lines(rows.inventory[rc.Mode]),
				Deal:       rc.dealFor(rc.Mode, k),
			}, true
		}
		if !ok {
			diag.classified(domain.ClassificationSkip)
			continue
		}

		agg := report.Aggregate(in)
		class := report.Classify(agg)
		diag.classified(class)
		path, ok := archive.PathFor(agg.BranchType, class, id.Display)
		if !ok {
			continue
		}
		input := in
		jobs = append(jobs, job{path: path, brand: &input, agg: agg})
	}

	if rc.Mode != domain.BranchMerged {
		s := report.Summarize(rc.Mode, rc.Sales[rc.Mode], rc.Inventory[rc.Mode], rc.Deals[rc.Mode])
		jobs = append(jobs, job{path: archive.SummaryPath(rc.Mode), summary: &s})
	}

	return jobs
}

// mergedInput picks the branch view for a brand in a merged run. A brand
// reported under one branch keeps its sales from both branches.
func mergedInput(rc *RunContext, id brand.Identity, rows *brandRows, diag *Diagnostics) (report.BrandInput, bool) {
	alexInv := rows.inventory[domain.BranchAlexandria]
	zamInv := rows.inventory[domain.BranchZamalek]
	alexSales := rows.sales[domain.BranchAlexandria]
	zamSales := rows.sales[domain.BranchZamalek]

	bt, ok := report.AssignBranch(report.BranchActivity{
		AlexInventory:    sumQty(alexInv),
		ZamalekInventory: sumQty(zamInv),
		AlexSales:        sumSold(alexSales),
		ZamalekSales:     sumSold(zamSales),
	})
	if !ok {
		return report.BrandInput{}, false
	}

	sales := make([]domain.SalesRecord, 0, len(alexSales)+len(zamSales))
	sales = append(sales, alexSales...)
	sales = append(sales, zamSales...)

	in := report.BrandInput{
		Brand:      id,
		BranchType: bt,
		Sales:      sales,
		Deal:       rc.dealFor(bt, id.Key),
	}

	switch bt {
	case domain.BranchMerged:
		merged := inventory.Merge(alexInv, zamInv)
		diag.InventoryDropped += merged.Dropped
		diag.MergeErrors = append(diag.MergeErrors, merged.Errors...)
		in.Inventory = merged.Lines()
	case domain.BranchAlexandria:
		in.Inventory = lines(alexInv)
		if len(zamSales) > 0 {
			diag.OrphanedBranchSales++
		}
	case domain.BranchZamalek:
		in.Inventory = lines(zamInv)
		if len(alexSales) > 0 {
			diag.OrphanedBranchSales++
		}
	}

	return in, true
}

func (j job) String() string {
	if j.summary != nil {
		return fmt.Sprintf("%s summary", j.summary.Branch)
	}
	return j.agg.Brand.Display
}
