package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/slotx-reports/internal/workbook"
)

// render builds every job's workbook with at most WorkerCount builds in
// flight. Output order matches jobs regardless of completion order; the
// first failure cancels the rest.
func (g *Generator) render(ctx context.Context, rc *RunContext, jobs []job, now time.Time) ([][]byte, error) {
	meta := workbook.Metadata{
		PoweredBy:   g.cfg.PoweredBy,
		Version:     g.cfg.Version,
		ReportType:  string(rc.Mode),
		PayoutCycle: rc.Cycle,
		GeneratedAt: now,
	}

	out := make([][]byte, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.WorkerCount)

	for i := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			started := time.Now()

			data, err := jobs[i].build(meta)
			if err != nil {
				return fmt.Errorf("failed to build %s: %w", jobs[i], err)
			}
			out[i] = data

			log.Debug().
				Str("workbook", jobs[i].String()).
				Str("path", jobs[i].path).
				Int("bytes", len(data)).
				Dur("took", time.Since(started)).
				Msg("Built workbook")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j job) build(meta workbook.Metadata) ([]byte, error) {
	if j.summary != nil {
		meta.ReportType = fmt.Sprintf("%s Summary", j.summary.Branch)
		return workbook.BuildSummary(*j.summary, meta)
	}
	return workbook.BuildBrand(workbook.BrandInput{
		Aggregate: j.agg,
		Sales:     j.brand.Sales,
		Inventory: j.brand.Inventory,
		Meta:      meta,
	})
}
