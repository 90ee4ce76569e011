package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/matching"
)

// Filter represents a single filtering step applied to the partner catalog before ranking.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, c *Catalog) (*Catalog, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	IncludeInactive  bool     `mapstructure:"include_inactive"`
	ExcludedPartners []int    `mapstructure:"excluded_partners"`
	LoanTypes        []string `mapstructure:"loan_types"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Catalog is the list of partners passed through the pipeline.
type Catalog struct {
	Partners []matching.Partner
}

// NewCatalog copies partners into a new catalog so filters never touch the caller's slice.
func NewCatalog(partners []matching.Partner) *Catalog {
	return &Catalog{Partners: append([]matching.Partner(nil), partners...)}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Partners)
}

// Exclude removes every partner matching drop and returns the names of the removed partners.
// The relative order of the remaining partners is preserved.
func (c *Catalog) Exclude(drop func(matching.Partner) bool) []string {
	var excluded []string
	kept := c.Partners[:0]
	for _, p := range c.Partners {
		if drop(p) {
			excluded = append(excluded, p.Name)
			continue
		}
		kept = append(kept, p)
	}
	c.Partners = kept
	return excluded
}

// Default returns the standard pipeline configured from cfg.
func Default(cfg Config, logger *zap.Logger) []Filter {
	steps := []Filter{
		NewActive(),
		NewExcludedPartners(cfg.ExcludedPartners),
		NewLoanTypes(cfg.LoanTypes),
		NewCatalogValidation(logger),
	}

	if cfg.IncludeInactive {
		DisableByName(steps, "active", "inactive partners requested via config")
	}
	if len(cfg.LoanTypes) == 0 {
		DisableByName(steps, "loan_types", "no loan types configured")
	}

	return steps
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the remaining partners.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, partners []matching.Partner) ([]matching.Partner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	c := NewCatalog(partners)
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		c = next
	}

	return c.Partners, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
