package pipeline

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/deals"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/ingest"
	"github.com/andresuchdata/slotx-reports/internal/refund"
)

// RunContext is the cleaned, read-only input of one generation: refunds
// cancelled, columns resolved, deal sheets loaded and brands catalogued.
type RunContext struct {
	Mode      domain.Branch
	Cycle     domain.PayoutCycle
	Sales     map[domain.Branch][]domain.SalesRecord
	Inventory map[domain.Branch][]domain.InventoryRecord
	Deals     map[domain.Branch]deals.Table
	Catalog   *brand.Catalog
}

// branchesFor lists the physical branches whose tables a mode reads.
func branchesFor(mode domain.Branch) []domain.Branch {
	if mode == domain.BranchMerged {
		return domain.Branches
	}
	return []domain.Branch{mode}
}

// Prepare validates the request and cleans every table it needs. Missing
// uploads, missing sheets and unresolvable columns fail the whole run.
func Prepare(req Request, diag *Diagnostics) (*RunContext, error) {
	if _, err := domain.ParseMode(string(req.Mode)); err != nil {
		return nil, err
	}

	rc := &RunContext{
		Mode:      req.Mode,
		Cycle:     req.Cycle,
		Sales:     make(map[domain.Branch][]domain.SalesRecord),
		Inventory: make(map[domain.Branch][]domain.InventoryRecord),
		Deals:     make(map[domain.Branch]deals.Table),
		Catalog:   brand.NewCatalog(),
	}

	branches := branchesFor(req.Mode)
	for _, b := range branches {
		tables := req.Branches[b]
		if tables.Sales == nil {
			return nil, &domain.SourceError{Source: fmt.Sprintf("sales (%s)", b)}
		}
		if tables.Inventory == nil {
			return nil, &domain.SourceError{Source: fmt.Sprintf("inventory (%s)", b)}
		}
	}
	if req.Deals == nil {
		return nil, &domain.SourceError{Source: "deals"}
	}

	var parsed ingest.Stats
	for _, b := range branches {
		tables := req.Branches[b]

		sales, stats, err := ingest.Sales(*tables.Sales, b)
		if err != nil {
			return nil, err
		}
		parsed.Add(stats)

		cleaned, refunds := refund.Cancel(sales)
		diag.Refunds.Add(refunds)
		rc.Sales[b] = cleaned

		inv, stats, err := ingest.Inventory(*tables.Inventory, b)
		if err != nil {
			return nil, err
		}
		parsed.Add(stats)
		rc.Inventory[b] = inv
	}
	diag.RowsRead += parsed.Rows
	diag.BlankBrandRows += parsed.BlankBrand
	diag.DefaultedCells += parsed.Defaulted

	// Sales spellings come first so they name the brand in output.
	for _, b := range branches {
		for _, s := range rc.Sales[b] {
			rc.Catalog.Add(s.Brand)
		}
	}
	for _, b := range branches {
		for _, r := range rc.Inventory[b] {
			rc.Catalog.Add(r.Brand)
		}
	}

	if err := rc.loadDeals(req.Deals, diag); err != nil {
		return nil, err
	}

	return rc, nil
}

func (rc *RunContext) loadDeals(book deals.Book, diag *Diagnostics) error {
	load := func(b domain.Branch) error {
		t, err := deals.Load(book, string(b))
		if err != nil {
			return err
		}
		rc.Deals[b] = t
		diag.DealCollisions += len(t.Collisions)
		diag.DefaultedCells += t.Defaulted
		return nil
	}

	if rc.Mode != domain.BranchMerged {
		return load(rc.Mode)
	}

	if err := load(domain.BranchMerged); err != nil {
		return err
	}
	// Branch sheets refine the merged terms for brands stocked in one branch
	// only. Without them those brands use the Merged sheet.
	for _, b := range domain.Branches {
		err := load(b)
		var srcErr *domain.SourceError
		if errors.As(err, &srcErr) && srcErr.Sheet != "" {
			diag.DealSheetFallbacks++
			log.Warn().
				Str("sheet", string(b)).
				Msg("Deal sheet missing, using Merged terms for this branch")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// dealFor returns the terms a brand is reported under. Merged runs look a
// single-branch brand up in its branch sheet first and fall back to Merged.
func (rc *RunContext) dealFor(bt domain.Branch, k brand.Key) domain.DealTerms {
	if rc.Mode != domain.BranchMerged {
		return rc.Deals[rc.Mode].Lookup(k)
	}
	if bt != domain.BranchMerged {
		if t, ok := rc.Deals[bt]; ok && t.Has(k) {
			return t.Lookup(k)
		}
	}
	return rc.Deals[domain.BranchMerged].Lookup(k)
}
