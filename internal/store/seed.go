package store

import "github.com/spigell/lendmatch/internal/matching"

// SamplePartners returns the demo catalog loaded by NewMemory(true). IDs are left unset.
func SamplePartners() []matching.Partner {
	return []matching.Partner{
		{
			Name:               "Small Business Capital",
			LoanType:           "Term Loan",
			MinLoanAmount:      50000,
			MaxLoanAmount:      250000,
			MinCreditScore:     680,
			MinAnnualRevenue:   100000,
			MinYearsInBusiness: 2,
			InterestRateMin:    matching.Float(8),
			InterestRateMax:    matching.Float(12),
			TermLengthMin:      matching.Int(1),
			TermLengthMax:      matching.Int(5),
			TermUnit:           "years",
			FundingTimeMin:     matching.Int(3),
			FundingTimeMax:     matching.Int(5),
			FundingTimeUnit:    "days",
			Active:             true,
		},
		{
			Name:               "Growth Fund",
			LoanType:           "Line of Credit",
			MinLoanAmount:      25000,
			MaxLoanAmount:      150000,
			MinCreditScore:     650,
			MinAnnualRevenue:   75000,
			MinYearsInBusiness: 1,
			InterestRateMin:    matching.Float(9.5),
			InterestRateMax:    matching.Float(14),
			TermUnit:           "revolving",
			FundingTimeMin:     matching.Int(1),
			FundingTimeMax:     matching.Int(2),
			FundingTimeUnit:    "days",
			Active:             true,
		},
		{
			Name:               "Expansion Partners",
			LoanType:           "Equipment Financing",
			MinLoanAmount:      10000,
			MaxLoanAmount:      200000,
			MinCreditScore:     620,
			MinAnnualRevenue:   50000,
			MinYearsInBusiness: 1,
			InterestRateMin:    matching.Float(7),
			InterestRateMax:    matching.Float(11),
			TermLengthMin:      matching.Int(2),
			TermLengthMax:      matching.Int(7),
			TermUnit:           "years",
			FundingTimeMin:     matching.Int(5),
			FundingTimeMax:     matching.Int(7),
			FundingTimeUnit:    "days",
			Active:             true,
		},
		{
			Name:               "First Capital",
			LoanType:           "SBA Loan",
			MinLoanAmount:      50000,
			MaxLoanAmount:      5000000,
			MinCreditScore:     650,
			MinAnnualRevenue:   250000,
			MinYearsInBusiness: 2,
			InterestRateMin:    matching.Float(6),
			InterestRateMax:    matching.Float(9.5),
			TermLengthMin:      matching.Int(5),
			TermLengthMax:      matching.Int(25),
			TermUnit:           "years",
			FundingTimeMin:     matching.Int(30),
			FundingTimeMax:     matching.Int(90),
			FundingTimeUnit:    "days",
			Active:             true,
		},
		{
			Name:               "Merchant Advance",
			LoanType:           "Merchant Cash Advance",
			MinLoanAmount:      5000,
			MaxLoanAmount:      250000,
			MinCreditScore:     580,
			MinAnnualRevenue:   100000,
			MinYearsInBusiness: 0.5,
			InterestRateMin:    matching.Float(12),
			InterestRateMax:    matching.Float(25),
			TermLengthMin:      matching.Int(3),
			TermLengthMax:      matching.Int(18),
			TermUnit:           "months",
			FundingTimeMin:     matching.Int(1),
			FundingTimeMax:     matching.Int(3),
			FundingTimeUnit:    "days",
			Active:             true,
		},
	}
}
