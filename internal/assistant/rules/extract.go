// Package rules implements the assistant with keyword and pattern matching. It needs no
// network access and serves as the fallback for the language model.
package rules

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

type keywordGroup struct {
	label    string
	patterns []*regexp.Regexp
}

func group(label string, keywords ...string) keywordGroup {
	g := keywordGroup{label: label}
	for _, k := range keywords {
		g.patterns = append(g.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(k)))
	}
	return g
}

func (g keywordGroup) matches(text string) bool {
	for _, p := range g.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

var (
	businessTypes = []keywordGroup{
		group("Food & Beverage", "restaurant", "cafe", "catering", "food"),
		group("Retail", "retail", "shop", "store", "boutique", "ecommerce"),
		group("Technology", "tech", "software", "saas", "information technology", "app ", "apps", "development"),
		group("Construction", "construct", "build", "contractor", "remodel"),
		group("Healthcare", "health", "medical", "doctor", "clinic", "wellness"),
		group("Manufacturing", "manufactur", "factory", "production"),
		group("Professional Services", "service", "consult", "professional"),
	}

	loanPurposes = []keywordGroup{
		group("Equipment Purchase", "equipment", "machinery", "tools"),
		group("Business Expansion", "expansion", "expand", "grow", "scale"),
		group("Inventory Purchase", "inventory", "stock", "supplies"),
		group("Working Capital", "work capital", "working capital", "day-to-day", "operations"),
		group("Debt Refinancing", "refinanc", "consolidat"),
		group("Renovation", "renovat", "remodel", "improve"),
		group("Hiring Staff", "hire", "hiring", "staff", "employee", "personnel"),
	}

	amountPattern = `(\$?\d+(?:[,.]\d+)*)(?:\s*(thousand|million|billion|k|m|b)\b)?`

	yearsRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)[\s-]*(?:years?|yrs?)\b`)
	revenueRe = regexp.MustCompile(`(?i)(?:revenue|make|earn|annual|yearly|turnover).*?(?:is|of|about|around)?\s*` + amountPattern +
		`|` + amountPattern + `\s*(?:annual|yearly|per year|a year|revenue|in revenue|turnover)`)
	loanRe   = regexp.MustCompile(`(?i)` + amountPattern + `\s*(?:loan|funding|money|financing|capital|amount)`)
	creditRe = regexp.MustCompile(`(?i)(?:credit|score|fico)(?:\s+(?:is|of|around|about))?\s+(\d{3,})`)
)

// Extractor reads the profile out of the user messages of a conversation.
type Extractor struct{}

// NewExtractor returns a rule-based extractor.
func NewExtractor() *Extractor { return &Extractor{} }

var _ assistant.Extractor = (*Extractor)(nil)

func (e *Extractor) Extract(_ context.Context, history []store.Message) (matching.Profile, error) {
	return ExtractText(assistant.UserText(history)), nil
}

// ExtractText returns every detail it recognizes in text.
func ExtractText(text string) matching.Profile {
	var p matching.Profile

	for _, g := range businessTypes {
		if g.matches(text) {
			p.BusinessType = g.label
			break
		}
	}

	if m := yearsRe.FindStringSubmatch(text); m != nil {
		if years, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.YearsInBusiness = matching.Float(years)
		}
	}

	if m := revenueRe.FindStringSubmatch(text); m != nil {
		value, unit := m[1], m[2]
		if value == "" {
			value, unit = m[3], m[4]
		}
		p.AnnualRevenue = matching.Float(scaled(value, unit))
	}

	if m := loanRe.FindStringSubmatch(text); m != nil {
		p.RequestedAmount = matching.Float(scaled(m[1], m[2]))
	}

	for _, g := range loanPurposes {
		if g.matches(text) {
			p.LoanPurpose = g.label
			break
		}
	}

	p.CreditScore = creditScore(text)

	return p
}

func scaled(value, unit string) float64 {
	amount := matching.ParseNumber(value)
	switch strings.ToLower(unit) {
	case "k", "thousand":
		amount *= 1_000
	case "m", "million":
		amount *= 1_000_000
	case "b", "billion":
		amount *= 1_000_000_000
	}
	return amount
}

func creditScore(text string) *int {
	if m := creditRe.FindStringSubmatch(text); m != nil {
		if score, err := strconv.Atoi(m[1]); err == nil {
			return matching.Int(score)
		}
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "excellent") || strings.Contains(lower, "750+"):
		return matching.Int(750)
	case strings.Contains(lower, "good") || (strings.Contains(lower, "700") && strings.Contains(lower, "749")):
		return matching.Int(700)
	case strings.Contains(lower, "fair") || (strings.Contains(lower, "650") && strings.Contains(lower, "699")):
		return matching.Int(650)
	case strings.Contains(lower, "poor") || strings.Contains(lower, "below 650") || strings.Contains(lower, "under 650"):
		return matching.Int(600)
	}
	return nil
}
