package matching

import "sort"

// Rank scores every partner in the catalog, drops the ones scoring zero and orders the rest
// by score, highest first. Partners with equal scores keep their catalog order. The inputs
// are not modified.
func Rank(p Profile, partners []Partner, scorer Scorer) []Result {
	results := make([]Result, 0, len(partners))
	if !p.scorable() {
		return results
	}

	if scorer == nil {
		scorer = NewScorer(VariantAdditive)
	}

	for i := range partners {
		score := scorer.Score(p, partners[i])
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			PartnerID: partners[i].ID,
			Score:     score,
			Partner:   &partners[i],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// Top returns at most n leading results.
func Top(results []Result, n int) []Result {
	if n < 0 {
		n = 0
	}
	if len(results) <= n {
		return results
	}
	return results[:n]
}

// scorable reports whether any field used by the eligibility rules is present.
func (p Profile) scorable() bool {
	return p.CreditScore != nil ||
		p.AnnualRevenue != nil ||
		p.YearsInBusiness != nil ||
		p.RequestedAmount != nil
}
