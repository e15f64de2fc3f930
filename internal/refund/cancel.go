// Package refund removes refund rows from a sales table together with the
// sale each one reverses.
package refund

import (
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/slotx-reports/internal/brand"
	"github.com/andresuchdata/slotx-reports/internal/domain"
)

// Stats summarizes one cancellation pass.
type Stats struct {
	Refunds int // rows with negative quantity
	Matched int // refunds paired with an original sale
	Orphans int // refunds with no matching sale, dropped alone
}

func (s *Stats) Add(o Stats) {
	s.Refunds += o.Refunds
	s.Matched += o.Matched
	s.Orphans += o.Orphans
}

type matchKey struct {
	barcode string
	brand   brand.Key
	qty     int64
}

// Cancel pairs every refund (quantity < 0) with at most one unclaimed sale of
// the same barcode, brand and absolute quantity, and drops both. Refunds are
// processed in row order and always claim the earliest eligible sale. The
// pairing is greedy: a refund that could match several sales never waits
// for a better one. Unmatched refunds are dropped on their own.
//
// The result keeps the relative order of the surviving rows and contains no
// negative quantities.
func Cancel(sales []domain.SalesRecord) ([]domain.SalesRecord, Stats) {
	var stats Stats

	// Candidate originals per key, lowest index first.
	originals := make(map[matchKey][]int)
	var refunds []int
	for i, s := range sales {
		if s.Quantity < 0 {
			refunds = append(refunds, i)
			continue
		}
		k := matchKey{barcode: s.Barcode, brand: s.Brand.Key, qty: s.Quantity}
		originals[k] = append(originals[k], i)
	}
	if len(refunds) == 0 {
		return sales, stats
	}

	drop := make([]bool, len(sales))
	for _, ri := range refunds {
		r := sales[ri]
		stats.Refunds++
		drop[ri] = true

		k := matchKey{barcode: r.Barcode, brand: r.Brand.Key, qty: -r.Quantity}
		if queue := originals[k]; len(queue) > 0 {
			drop[queue[0]] = true
			originals[k] = queue[1:]
			stats.Matched++
			continue
		}

		stats.Orphans++
		log.Warn().
			Str("branch", string(r.Branch)).
			Str("brand", r.Brand.Display).
			Str("barcode", r.Barcode).
			Int64("quantity", r.Quantity).
			Int("row", r.Row).
			Msg("Refund has no matching sale, dropping it")
	}

	kept := make([]domain.SalesRecord, 0, len(sales)-stats.Refunds-stats.Matched)
	for i, s := range sales {
		if !drop[i] {
			kept = append(kept, s)
		}
	}

	return kept, stats
}
