package matching

import "fmt"

// CriterionStatus is the outcome of a single eligibility criterion.
type CriterionStatus string

const (
	CriterionPassed  CriterionStatus = "passed"
	CriterionFailed  CriterionStatus = "failed"
	CriterionSkipped CriterionStatus = "skipped"
)

// CriterionResult describes how one applicant field compared with the partner threshold.
type CriterionResult struct {
	Name   string          `json:"name"`
	Status CriterionStatus `json:"status"`
	Detail string          `json:"detail"`
}

// Explanation breaks a score down into its eligibility checks.
type Explanation struct {
	PartnerID int               `json:"partnerId"`
	Eligible  bool              `json:"eligible"`
	Score     int               `json:"score"`
	Variant   Variant           `json:"variant"`
	Criteria  []CriterionResult `json:"criteria"`
}

// Explain evaluates every criterion separately so callers can show why a partner matched
// or not. Its Eligible and Score agree with Eligible and scorer.Score.
func Explain(p Profile, partner Partner, scorer Scorer) Explanation {
	if scorer == nil {
		scorer = NewScorer(VariantAdditive)
	}

	criteria := []CriterionResult{
		creditCriterion(p, partner),
		revenueCriterion(p, partner),
		yearsCriterion(p, partner),
		amountCriterion(p, partner),
	}

	return Explanation{
		PartnerID: partner.ID,
		Eligible:  Eligible(p, partner),
		Score:     scorer.Score(p, partner),
		Variant:   scorer.Variant(),
		Criteria:  criteria,
	}
}

func creditCriterion(p Profile, partner Partner) CriterionResult {
	c := CriterionResult{Name: "credit_score"}
	if p.CreditScore == nil {
		c.Status, c.Detail = CriterionSkipped, "not provided"
		return c
	}
	c.Status = statusOf(*p.CreditScore >= partner.MinCreditScore)
	c.Detail = fmt.Sprintf("%d vs minimum %d", *p.CreditScore, partner.MinCreditScore)
	return c
}

func revenueCriterion(p Profile, partner Partner) CriterionResult {
	c := CriterionResult{Name: "annual_revenue"}
	if p.AnnualRevenue == nil {
		c.Status, c.Detail = CriterionSkipped, "not provided"
		return c
	}
	c.Status = statusOf(*p.AnnualRevenue >= partner.MinAnnualRevenue)
	c.Detail = fmt.Sprintf("%.0f vs minimum %.0f", *p.AnnualRevenue, partner.MinAnnualRevenue)
	return c
}

func yearsCriterion(p Profile, partner Partner) CriterionResult {
	c := CriterionResult{Name: "years_in_business"}
	if p.YearsInBusiness == nil {
		c.Status, c.Detail = CriterionSkipped, "not provided"
		return c
	}
	c.Status = statusOf(*p.YearsInBusiness >= partner.MinYearsInBusiness)
	c.Detail = fmt.Sprintf("%g vs minimum %g", *p.YearsInBusiness, partner.MinYearsInBusiness)
	return c
}

func amountCriterion(p Profile, partner Partner) CriterionResult {
	c := CriterionResult{Name: "requested_amount"}
	if p.RequestedAmount == nil {
		c.Status, c.Detail = CriterionSkipped, "not provided"
		return c
	}
	amount := *p.RequestedAmount
	c.Status = statusOf(amount >= partner.MinLoanAmount && amount <= partner.MaxLoanAmount)
	c.Detail = fmt.Sprintf("%.0f within %.0f-%.0f", amount, partner.MinLoanAmount, partner.MaxLoanAmount)
	return c
}

func statusOf(ok bool) CriterionStatus {
	if ok {
		return CriterionPassed
	}
	return CriterionFailed
}
