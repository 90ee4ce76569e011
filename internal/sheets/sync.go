package sheets

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/metrics"
	"github.com/spigell/lendmatch/internal/store"
)

// Result counts what a sync did to the catalog.
type Result struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

type partnerKey struct {
	name     string
	loanType string
}

// Sync fetches the sheet and upserts its partners keyed on name and loan type. Partners
// missing from the sheet are left untouched.
func Sync(ctx context.Context, fetcher Fetcher, st store.Store, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rows, err := fetcher.Fetch(ctx)
	if err != nil {
		metrics.PartnerSync.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("fetch partners: %w", err)
	}

	partners, problems := ParseRows(rows)

	var res Result
	for _, problem := range problems {
		logger.Warn("skipping partner row", zap.Int("row", problem.Row), zap.Error(problem.Err))
	}
	res.Skipped = len(problems)

	existing := make(map[partnerKey]matching.Partner)
	for _, p := range st.Partners() {
		existing[partnerKey{name: p.Name, loanType: p.LoanType}] = p
	}

	for _, incoming := range partners {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		key := partnerKey{name: incoming.Name, loanType: incoming.LoanType}
		current, ok := existing[key]

		switch {
		case !ok:
			created, err := st.CreatePartner(incoming)
			if err != nil {
				return res, fmt.Errorf("create partner %q: %w", incoming.Name, err)
			}
			existing[key] = created
			res.Added++
		case samePartner(current, incoming):
			res.Unchanged++
		default:
			updated, err := st.UpdatePartner(current.ID, func(p *matching.Partner) {
				*p = incoming
			})
			if err != nil {
				return res, fmt.Errorf("update partner %d: %w", current.ID, err)
			}
			existing[key] = updated
			res.Updated++
		}
	}

	metrics.PartnerSync.WithLabelValues("added").Add(float64(res.Added))
	metrics.PartnerSync.WithLabelValues("updated").Add(float64(res.Updated))
	metrics.PartnerSync.WithLabelValues("unchanged").Add(float64(res.Unchanged))
	metrics.PartnerSync.WithLabelValues("skipped").Add(float64(res.Skipped))

	logger.Info("partner sync finished",
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("skipped", res.Skipped),
	)

	return res, nil
}

func samePartner(a, b matching.Partner) bool {
	a.ID, b.ID = 0, 0
	return reflect.DeepEqual(a, b)
}
