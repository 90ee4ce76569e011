package filtering

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/lendmatch/internal/matching"
)

func testCatalog() []matching.Partner {
	return []matching.Partner{
		{ID: 1, Name: "Term", LoanType: "Term Loan", MinLoanAmount: 1000, MaxLoanAmount: 5000, Active: true},
		{ID: 2, Name: "Sleeping", LoanType: "Term Loan", MinLoanAmount: 1000, MaxLoanAmount: 5000},
		{ID: 3, Name: "Credit Line", LoanType: "Line of Credit", MinLoanAmount: 1000, MaxLoanAmount: 5000, Active: true},
		{ID: 4, Name: "Broken", LoanType: "Term Loan", MinLoanAmount: 5000, MaxLoanAmount: 1000, Active: true},
	}
}

func partnerIDs(partners []matching.Partner) []int {
	ids := make([]int, 0, len(partners))
	for _, p := range partners {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestRunDefaultPipeline(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	input := testCatalog()
	got, err := Run(context.Background(), logger, Default(Config{}, logger), input)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if ids := partnerIDs(got); len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected partners left: %v", ids)
	}

	if len(input) != 4 || input[1].ID != 2 {
		t.Fatalf("input catalog was modified: %v", partnerIDs(input))
	}

	if n := logs.FilterMessage("dropping invalid partner").Len(); n != 1 {
		t.Fatalf("expected one invalid partner warning, got %d", n)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 3 {
		t.Fatalf("expected 3 executed steps, got %d", len(steps))
	}
	first := steps[0].ContextMap()
	if first["name"] != "active" || first["dropped"] != int64(1) || first["left"] != int64(3) {
		t.Fatalf("unexpected active step fields: %v", first)
	}

	if n := logs.FilterMessage("filter disabled").Len(); n != 1 {
		t.Fatalf("expected loan_types to be reported disabled, got %d entries", n)
	}
}

func TestRunWithConfiguredFilters(t *testing.T) {
	t.Parallel()

	cfg := Config{
		IncludeInactive:  true,
		ExcludedPartners: []int{1},
		LoanTypes:        []string{" term loan "},
	}

	got, err := Run(context.Background(), nil, Default(cfg, nil), testCatalog())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if ids := partnerIDs(got); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("unexpected partners left: %v", ids)
	}
}

func TestRunValidationError(t *testing.T) {
	t.Parallel()

	steps := []Filter{NewExcludedPartners([]int{0})}
	if _, err := Run(context.Background(), nil, steps, testCatalog()); err == nil {
		t.Fatal("expected validation error for non-positive partner id")
	}

	steps = []Filter{NewLoanTypes(nil)}
	if _, err := Run(context.Background(), nil, steps, testCatalog()); err == nil {
		t.Fatal("expected validation error for enabled loan type filter without types")
	}
}

func TestRunCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, nil, []Filter{NewActive()}, testCatalog()); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestRunEmptyCatalog(t *testing.T) {
	t.Parallel()

	got, err := Run(context.Background(), nil, Default(Config{}, nil), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty catalog, got %v", partnerIDs(got))
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	steps := Default(Config{ExcludedPartners: []int{7, 3}}, nil)
	statuses := Describe(steps)

	if len(statuses) != len(steps) {
		t.Fatalf("expected %d statuses, got %d", len(steps), len(statuses))
	}

	byName := make(map[string]Status, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}

	if got := byName["excluded_partners"].Details["partner_ids"]; got != "3,7" {
		t.Fatalf("unexpected excluded partner details: %q", got)
	}

	loanTypes := byName["loan_types"]
	if loanTypes.Enabled || loanTypes.Reason == "" {
		t.Fatalf("expected loan_types to be disabled with a reason: %+v", loanTypes)
	}

	if !byName["catalog_validation"].Enabled {
		t.Fatal("catalog_validation should always be enabled")
	}
}
