// Package source opens the uploaded exports of one report batch, wherever
// they live, and turns them into a pipeline request.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/pipeline"
	"github.com/andresuchdata/slotx-reports/internal/sheet"
)

// Opener fetches one named upload.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Files names every upload of a batch. Empty names are missing uploads.
type Files struct {
	Sales     map[domain.Branch]string
	Inventory map[domain.Branch]string
	Deals     string
}

// Single names the uploads of a one-branch run.
func Single(branch domain.Branch, sales, inventory, deals string) Files {
	return Files{
		Sales:     map[domain.Branch]string{branch: sales},
		Inventory: map[domain.Branch]string{branch: inventory},
		Deals:     deals,
	}
}

// Batch is a loaded request. Close releases the deals workbook, which is
// read lazily sheet by sheet.
type Batch struct {
	Request pipeline.Request
	deals   *sheet.Workbook
}

func (b *Batch) Close() error {
	if b.deals == nil {
		return nil
	}
	return b.deals.Close()
}

// Load reads every named upload through o. Missing names are left out of the
// request so the pipeline reports them as missing uploads.
func Load(ctx context.Context, o Opener, mode domain.Branch, cycle domain.PayoutCycle, files Files) (*Batch, error) {
	req := pipeline.Request{
		Mode:     mode,
		Cycle:    cycle,
		Branches: make(map[domain.Branch]pipeline.BranchTables),
	}

	for _, b := range domain.Branches {
		var tables pipeline.BranchTables
		var err error
		if tables.Sales, err = readFirst(ctx, o, files.Sales[b]); err != nil {
			return nil, err
		}
		if tables.Inventory, err = readFirst(ctx, o, files.Inventory[b]); err != nil {
			return nil, err
		}
		if tables.Sales != nil || tables.Inventory != nil {
			req.Branches[b] = tables
		}
	}

	batch := &Batch{Request: req}
	if files.Deals == "" {
		return batch, nil
	}

	book, err := openWorkbook(ctx, o, files.Deals)
	if err != nil {
		return nil, err
	}
	batch.deals = book
	batch.Request.Deals = book

	log.Debug().
		Str("mode", string(mode)).
		Strs("deal_sheets", book.SheetNames()).
		Int("branches", len(req.Branches)).
		Msg("Loaded upload batch")
	return batch, nil
}

func readFirst(ctx context.Context, o Opener, name string) (*sheet.Table, error) {
	if name == "" {
		return nil, nil
	}
	book, err := openWorkbook(ctx, o, name)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	t, err := book.First()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func openWorkbook(ctx context.Context, o Opener, name string) (*sheet.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := o.Open(ctx, name)
	if err != nil {
		var srcErr *domain.SourceError
		if errors.As(err, &srcErr) {
			return nil, err
		}
		return nil, &domain.SourceError{Source: name, Err: fmt.Errorf("open upload: %w", err)}
	}
	defer rc.Close()

	return sheet.Open(name, rc)
}
