package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

func first(int) int { return 0 }

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect matching.Profile
	}{
		{
			name:  "full introduction",
			input: "I run a small restaurant, been open 5 years. Our annual revenue is $450k and I need a 100k loan for new equipment. My credit score is 720.",
			expect: matching.Profile{
				BusinessType:    "Food & Beverage",
				YearsInBusiness: matching.Float(5),
				AnnualRevenue:   matching.Float(450000),
				RequestedAmount: matching.Float(100000),
				LoanPurpose:     "Equipment Purchase",
				CreditScore:     matching.Int(720),
			},
		},
		{
			name:  "revenue after the number",
			input: "we do 2 million in revenue",
			expect: matching.Profile{
				AnnualRevenue: matching.Float(2000000),
			},
		},
		{
			name:  "separators in amounts",
			input: "looking for $250,000 financing to expand",
			expect: matching.Profile{
				RequestedAmount: matching.Float(250000),
				LoanPurpose:     "Business Expansion",
			},
		},
		{
			name:   "credit band",
			input:  "my credit is fair I think",
			expect: matching.Profile{CreditScore: matching.Int(650)},
		},
		{
			name:   "credit below threshold",
			input:  "probably below 650",
			expect: matching.Profile{CreditScore: matching.Int(600)},
		},
		{
			name:   "nothing recognized",
			input:  "hello there",
			expect: matching.Profile{},
		},
		{
			name:   "short words do not trigger business types",
			input:  "it is a capital question",
			expect: matching.Profile{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, ExtractText(tt.input))
		})
	}
}

func TestExtractorUsesOnlyUserMessages(t *testing.T) {
	t.Parallel()

	history := []store.Message{
		{Role: store.RoleAssistant, Content: "Do you run a restaurant or a retail shop?"},
		{Role: store.RoleUser, Content: "I have a software company"},
		{Role: store.RoleUser, Content: "3 years"},
	}

	profile, err := NewExtractor().Extract(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Technology", profile.BusinessType)
	require.NotNil(t, profile.YearsInBusiness)
	assert.Equal(t, 3.0, *profile.YearsInBusiness)
}

func TestResponderQuestionLadder(t *testing.T) {
	t.Parallel()

	r := NewResponder(first)
	user := []store.Message{{Role: store.RoleUser, Content: "hi"}}

	tests := []struct {
		name    string
		profile matching.Profile
		expect  string
	}{
		{name: "business type", profile: matching.Profile{}, expect: welcomeReplies[0]},
		{name: "years", profile: matching.Profile{BusinessType: "Retail"}, expect: yearsQuestions[0]},
		{name: "revenue", profile: matching.Profile{BusinessType: "Retail", YearsInBusiness: matching.Float(2)}, expect: revenueQuestions[0]},
		{
			name: "amount",
			profile: matching.Profile{
				BusinessType: "Retail", YearsInBusiness: matching.Float(2), AnnualRevenue: matching.Float(1),
			},
			expect: amountQuestions[0],
		},
		{
			name: "purpose",
			profile: matching.Profile{
				BusinessType: "Retail", YearsInBusiness: matching.Float(2), AnnualRevenue: matching.Float(1),
				RequestedAmount: matching.Float(1),
			},
			expect: purposeQuestions[0],
		},
		{
			name: "credit",
			profile: matching.Profile{
				BusinessType: "Retail", YearsInBusiness: matching.Float(2), AnnualRevenue: matching.Float(1),
				RequestedAmount: matching.Float(1), LoanPurpose: "Renovation",
			},
			expect: creditQuestions[0],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lead := &store.Lead{Profile: tt.profile}
			reply, err := r.Reply(context.Background(), assistant.Conversation{History: user, Lead: lead})
			require.NoError(t, err)
			assert.Equal(t, tt.expect, reply)
		})
	}
}

func TestResponderWelcomesEmptyConversation(t *testing.T) {
	t.Parallel()

	reply, err := NewResponder(func(int) int { return 2 }).Reply(context.Background(), assistant.Conversation{})
	require.NoError(t, err)
	assert.Equal(t, welcomeReplies[2], reply)
}

func TestResponderSummarizesTopMatches(t *testing.T) {
	t.Parallel()

	catalog := store.SamplePartners()
	for i := range catalog {
		catalog[i].ID = i + 1
	}

	profile := matching.Profile{
		BusinessType:    "Retail",
		YearsInBusiness: matching.Float(6),
		AnnualRevenue:   matching.Float(800000),
		RequestedAmount: matching.Float(100000),
		LoanPurpose:     "Inventory Purchase",
		CreditScore:     matching.Int(760),
	}
	results := matching.Rank(profile, catalog, matching.NewScorer(matching.VariantAdditive))
	require.Len(t, results, 5)

	reply, err := NewResponder(first).Reply(context.Background(), assistant.Conversation{
		History: []store.Message{{Role: store.RoleUser, Content: "credit 760"}},
		Lead:    &store.Lead{Profile: profile},
		Matches: results,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(reply, "Good news! Based on the information you've provided, I've found 5 lending partners"))
	assert.Contains(t, reply, "1. "+results[0].Partner.Name)
	assert.Contains(t, reply, "3. "+results[2].Partner.Name)
	assert.NotContains(t, reply, "4. ")
	assert.Contains(t, reply, "   - Loan Amount: $")
	assert.Contains(t, reply, "   - Match Score: 100%")
}

func TestResponderNoMatches(t *testing.T) {
	t.Parallel()

	profile := matching.Profile{
		BusinessType:    "Retail",
		YearsInBusiness: matching.Float(0),
		AnnualRevenue:   matching.Float(1000),
		RequestedAmount: matching.Float(100),
		LoanPurpose:     "Renovation",
		CreditScore:     matching.Int(500),
	}

	reply, err := NewResponder(first).Reply(context.Background(), assistant.Conversation{
		History: []store.Message{{Role: store.RoleUser, Content: "500"}},
		Lead:    &store.Lead{Profile: profile},
	})
	require.NoError(t, err)
	assert.Equal(t, noMatchReplies[0], reply)
}
