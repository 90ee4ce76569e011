package matching

import (
	"fmt"
	"math"
	"strings"
)

// Variant selects the scoring formula.
type Variant string

const (
	// VariantAdditive starts from a base score and adds bonuses for margins over the minimums.
	VariantAdditive Variant = "a"
	// VariantAveraged averages per-factor sub-scores, including loan amount proximity.
	VariantAveraged Variant = "b"

	additiveBase = 60
	maxScore     = 100
)

// ParseVariant accepts "a"/"additive" and "b"/"averaged" in any case. Empty input selects
// the additive formula.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a", "additive":
		return VariantAdditive, nil
	case "b", "averaged":
		return VariantAveraged, nil
	default:
		return "", fmt.Errorf("unknown scoring variant %q", s)
	}
}

// Scorer computes a 0-100 suitability score. Ineligible pairs always score 0.
type Scorer interface {
	Score(p Profile, partner Partner) int
	Variant() Variant
}

// NewScorer returns the scorer for the given variant. Unknown variants fall back to the
// additive formula.
func NewScorer(v Variant) Scorer {
	if v == VariantAveraged {
		return averagedScorer{}
	}
	return additiveScorer{}
}

type additiveScorer struct{}

func (additiveScorer) Variant() Variant { return VariantAdditive }

func (additiveScorer) Score(p Profile, partner Partner) int {
	if !Eligible(p, partner) {
		return 0
	}

	score := additiveBase

	if p.CreditScore != nil {
		margin := *p.CreditScore - partner.MinCreditScore
		switch {
		case margin >= 100:
			score += 15
		case margin >= 50:
			score += 10
		case margin >= 20:
			score += 5
		}
	}

	if p.AnnualRevenue != nil {
		switch revenueMultiple(*p.AnnualRevenue, partner.MinAnnualRevenue) {
		case 3:
			score += 15
		case 2:
			score += 10
		case 1.5:
			score += 5
		}
	}

	if p.YearsInBusiness != nil {
		years, minimum := *p.YearsInBusiness, partner.MinYearsInBusiness
		switch {
		case years >= minimum*3:
			score += 10
		case years >= minimum*2:
			score += 5
		}
	}

	return min(score, maxScore)
}

type averagedScorer struct{}

func (averagedScorer) Variant() Variant { return VariantAveraged }

func (averagedScorer) Score(p Profile, partner Partner) int {
	if !Eligible(p, partner) {
		return 0
	}

	var total float64
	factors := 0

	if p.CreditScore != nil {
		factors++
		total += creditFactor(*p.CreditScore - partner.MinCreditScore)
	}

	if p.YearsInBusiness != nil {
		factors++
		total += yearsFactor(*p.YearsInBusiness - partner.MinYearsInBusiness)
	}

	if p.AnnualRevenue != nil {
		factors++
		total += revenueFactor(*p.AnnualRevenue, partner.MinAnnualRevenue)
	}

	if p.RequestedAmount != nil {
		factors++
		total += amountFactor(*p.RequestedAmount, partner.MinLoanAmount, partner.MaxLoanAmount)
	}

	if factors == 0 {
		return 0
	}

	return int(math.Round(total / float64(factors)))
}

func creditFactor(margin int) float64 {
	switch {
	case margin >= 100:
		return 100
	case margin >= 50:
		return 80
	case margin >= 20:
		return 60
	default:
		return 40
	}
}

func yearsFactor(margin float64) float64 {
	switch {
	case margin >= 5:
		return 100
	case margin >= 2:
		return 70
	default:
		return 40
	}
}

func revenueFactor(revenue, minimum float64) float64 {
	switch revenueMultiple(revenue, minimum) {
	case 3:
		return 100
	case 2:
		return 80
	case 1.5:
		return 60
	default:
		return 40
	}
}

// revenueMultiple returns the highest tier (3, 2 or 1.5) of the partner minimum that revenue
// reaches, or 0. With no minimum any positive revenue is in the top tier and zero revenue in
// none.
func revenueMultiple(revenue, minimum float64) float64 {
	if minimum <= 0 {
		if revenue > 0 {
			return 3
		}
		return 0
	}

	for _, tier := range []float64{3, 2, 1.5} {
		if revenue >= minimum*tier {
			return tier
		}
	}
	return 0
}

// amountFactor rewards requests close to the middle of the partner's range. A single-point
// range scores 100 on the point and 0 elsewhere.
func amountFactor(amount, minAmount, maxAmount float64) float64 {
	span := maxAmount - minAmount
	if span <= 0 {
		if amount == minAmount {
			return 100
		}
		return 0
	}

	half := span / 2
	distance := math.Abs(amount - (minAmount + half))
	pct := math.Min(100, distance/half*100)
	return 100 - pct*0.6
}
