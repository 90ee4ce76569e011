package matching

// Eligible reports whether the applicant passes every partner threshold it can be checked
// against. A criterion whose applicant field is absent is skipped.
func Eligible(p Profile, partner Partner) bool {
	if p.CreditScore != nil && *p.CreditScore < partner.MinCreditScore {
		return false
	}

	if p.AnnualRevenue != nil && *p.AnnualRevenue < partner.MinAnnualRevenue {
		return false
	}

	if p.YearsInBusiness != nil && *p.YearsInBusiness < partner.MinYearsInBusiness {
		return false
	}

	if p.RequestedAmount != nil {
		amount := *p.RequestedAmount
		if amount < partner.MinLoanAmount || amount > partner.MaxLoanAmount {
			return false
		}
	}

	return true
}
