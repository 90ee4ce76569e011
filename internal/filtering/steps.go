package filtering

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/matching"
)

type activeFilter struct {
	disabled bool
	reason   string
}

// NewActive creates a filter that removes inactive partners.
func NewActive() Filter {
	return &activeFilter{}
}

func (f *activeFilter) Name() string { return "active" }

func (f *activeFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *activeFilter) IsEnabled() bool { return !f.disabled }

func (f *activeFilter) Validate() error { return nil }

func (f *activeFilter) Apply(_ context.Context, c *Catalog) (*Catalog, Step, error) {
	initial := c.Len()
	excluded := c.Exclude(func(p matching.Partner) bool { return !p.Active })
	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *activeFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type excludedPartnersFilter struct {
	ids map[int]struct{}
}

// NewExcludedPartners creates a filter that removes partners by the IDs configured in the config.
func NewExcludedPartners(ids []int) Filter {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &excludedPartnersFilter{ids: set}
}

func (f *excludedPartnersFilter) Name() string { return "excluded_partners" }

func (f *excludedPartnersFilter) Disable(string) {}

func (f *excludedPartnersFilter) IsEnabled() bool { return true }

func (f *excludedPartnersFilter) Validate() error {
	for id := range f.ids {
		if id <= 0 {
			return fmt.Errorf("partner id must be positive, got %d", id)
		}
	}
	return nil
}

func (f *excludedPartnersFilter) Apply(_ context.Context, c *Catalog) (*Catalog, Step, error) {
	initial := c.Len()
	if len(f.ids) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(func(p matching.Partner) bool {
		_, ok := f.ids[p.ID]
		return ok
	})
	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *excludedPartnersFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		ids := make([]int, 0, len(f.ids))
		for id := range f.ids {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, strconv.Itoa(id))
		}
		details["partner_ids"] = strings.Join(parts, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type loanTypesFilter struct {
	disabled bool
	reason   string
	types    []string
}

// NewLoanTypes creates a filter that keeps only partners offering one of the given loan types.
// Loan types are compared case-insensitively.
func NewLoanTypes(types []string) Filter {
	normalized := make([]string, 0, len(types))
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			normalized = append(normalized, t)
		}
	}
	return &loanTypesFilter{types: normalized}
}

func (f *loanTypesFilter) Name() string { return "loan_types" }

func (f *loanTypesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *loanTypesFilter) IsEnabled() bool { return !f.disabled }

func (f *loanTypesFilter) Validate() error {
	if len(f.types) == 0 {
		return fmt.Errorf("at least one loan type is required when the filter is enabled")
	}
	return nil
}

func (f *loanTypesFilter) Apply(_ context.Context, c *Catalog) (*Catalog, Step, error) {
	initial := c.Len()
	excluded := c.Exclude(func(p matching.Partner) bool {
		for _, t := range f.types {
			if strings.EqualFold(t, strings.TrimSpace(p.LoanType)) {
				return false
			}
		}
		return true
	})
	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *loanTypesFilter) Status() Status {
	details := map[string]string{}
	if len(f.types) > 0 {
		details["loan_types"] = strings.Join(f.types, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type catalogValidationFilter struct {
	logger *zap.Logger
}

// NewCatalogValidation creates a filter that removes partners whose thresholds cannot be scored,
// such as an inverted loan range. Every dropped partner is reported to logger.
func NewCatalogValidation(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogValidationFilter{logger: logger}
}

func (f *catalogValidationFilter) Name() string { return "catalog_validation" }

func (f *catalogValidationFilter) Disable(string) {}

func (f *catalogValidationFilter) IsEnabled() bool { return true }

func (f *catalogValidationFilter) Validate() error { return nil }

func (f *catalogValidationFilter) Apply(_ context.Context, c *Catalog) (*Catalog, Step, error) {
	initial := c.Len()
	excluded := c.Exclude(func(p matching.Partner) bool {
		err := p.Check()
		if err != nil {
			f.logger.Warn("dropping invalid partner",
				zap.Int("partner_id", p.ID),
				zap.Error(err),
			)
		}
		return err != nil
	})
	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}
