package matching

import (
	"errors"
	"fmt"
)

// Partner is a lending partner catalog entry. Only the Min*/Max* fields take part in
// matching; the rest is display data passed through to formatters.
type Partner struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name" validate:"required"`
	LoanType           string   `json:"loanType" validate:"required"`
	MinLoanAmount      float64  `json:"minLoanAmount" validate:"gte=0"`
	MaxLoanAmount      float64  `json:"maxLoanAmount" validate:"gte=0,gtefield=MinLoanAmount"`
	MinCreditScore     int      `json:"minCreditScore" validate:"gte=0,lte=900"`
	MinAnnualRevenue   float64  `json:"minAnnualRevenue" validate:"gte=0"`
	MinYearsInBusiness float64  `json:"minYearsInBusiness" validate:"gte=0"`
	InterestRateMin    *float64 `json:"interestRateMin,omitempty"`
	InterestRateMax    *float64 `json:"interestRateMax,omitempty"`
	TermLengthMin      *int     `json:"termLengthMin,omitempty"`
	TermLengthMax      *int     `json:"termLengthMax,omitempty"`
	TermUnit           string   `json:"termUnit,omitempty"`
	FundingTimeMin     *int     `json:"fundingTimeMin,omitempty"`
	FundingTimeMax     *int     `json:"fundingTimeMax,omitempty"`
	FundingTimeUnit    string   `json:"fundingTimeUnit,omitempty"`
	Active             bool     `json:"active"`
}

// ErrInvalidPartner is returned by Partner.Check for catalog entries that cannot be scored.
var ErrInvalidPartner = errors.New("invalid partner")

// Check verifies the numeric invariants the scorers rely on.
func (p Partner) Check() error {
	switch {
	case p.MinLoanAmount < 0, p.MaxLoanAmount < 0, p.MinAnnualRevenue < 0, p.MinYearsInBusiness < 0:
		return fmt.Errorf("%w: %q has a negative minimum", ErrInvalidPartner, p.Name)
	case p.MaxLoanAmount < p.MinLoanAmount:
		return fmt.Errorf("%w: %q max loan amount %.0f is below min %.0f", ErrInvalidPartner, p.Name, p.MaxLoanAmount, p.MinLoanAmount)
	}
	return nil
}

// Result is one ranked match. Partner points at the catalog entry it was computed from and
// must be treated as read-only.
type Result struct {
	PartnerID int      `json:"partnerId"`
	Score     int      `json:"score"`
	Partner   *Partner `json:"-"`
}
