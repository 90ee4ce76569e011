// Package assistant runs the qualification conversation: it extracts an applicant profile
// from chat history, ranks partners for it and writes the reply.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

// Extractor turns a conversation into a sparse applicant profile.
type Extractor interface {
	Extract(ctx context.Context, history []store.Message) (matching.Profile, error)
}

// Responder writes the next assistant message.
type Responder interface {
	Reply(ctx context.Context, conv Conversation) (string, error)
}

// Conversation is everything a Responder may use to answer.
type Conversation struct {
	History []store.Message
	Catalog []matching.Partner
	// Lead is nil until the applicant shared at least one detail.
	Lead    *store.Lead
	Matches []matching.Result
}

// Profile returns the lead profile or an empty one.
func (c Conversation) Profile() matching.Profile {
	if c.Lead == nil {
		return matching.Profile{}
	}
	return c.Lead.Profile
}

// UserText joins the content of every user message with single spaces.
func UserText(history []store.Message) string {
	parts := make([]string, 0, len(history))
	for _, msg := range history {
		if msg.Role == store.RoleUser {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, " ")
}

// DescribePartner renders a partner as an indented bullet list.
func DescribePartner(p matching.Partner) string {
	var b strings.Builder
	fmt.Fprintf(&b, "   - Loan Amount: %s - %s\n", Money(p.MinLoanAmount), Money(p.MaxLoanAmount))
	if p.InterestRateMin != nil && p.InterestRateMax != nil {
		fmt.Fprintf(&b, "   - Interest Rate: %g%% - %g%%\n", *p.InterestRateMin, *p.InterestRateMax)
	}
	if p.TermLengthMin != nil && p.TermLengthMax != nil && p.TermUnit != "" {
		fmt.Fprintf(&b, "   - Term: %d - %d %s\n", *p.TermLengthMin, *p.TermLengthMax, p.TermUnit)
	} else if p.TermUnit != "" {
		fmt.Fprintf(&b, "   - Term: %s\n", p.TermUnit)
	}
	if p.FundingTimeMin != nil && p.FundingTimeMax != nil && p.FundingTimeUnit != "" {
		fmt.Fprintf(&b, "   - Funding Time: %d - %d %s\n", *p.FundingTimeMin, *p.FundingTimeMax, p.FundingTimeUnit)
	}
	return b.String()
}

// Money formats a dollar amount with thousands separators and no cents.
func Money(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}

	digits := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
