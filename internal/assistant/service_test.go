package assistant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/assistant/rules"
	"github.com/spigell/lendmatch/internal/filtering"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

type failingExtractor struct{ err error }

func (f failingExtractor) Extract(context.Context, []store.Message) (matching.Profile, error) {
	return matching.Profile{}, f.err
}

func first(int) int { return 0 }

func newService(t *testing.T, extractor assistant.Extractor) (*assistant.Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory(true)
	svc := assistant.NewService(st, extractor, rules.NewResponder(first), nil, filtering.Config{}, zap.NewNop())
	return svc, st
}

func TestHandleMessageConversation(t *testing.T) {
	svc, st := newService(t, rules.NewExtractor())
	ctx := context.Background()

	reply, err := svc.HandleMessage(ctx, nil, "hello")
	require.NoError(t, err)
	assert.Nil(t, reply.Lead)
	assert.NotEmpty(t, reply.Message)
	assert.Empty(t, reply.Matches)
	assert.Empty(t, st.Leads(), "no lead without details")

	reply, err = svc.HandleMessage(ctx, nil, "I have a retail shop")
	require.NoError(t, err)
	require.NotNil(t, reply.Lead)
	assert.Equal(t, "Retail", reply.Lead.Profile.BusinessType)
	assert.Equal(t, store.DefaultBusinessName, reply.Lead.Profile.BusinessName)
	assert.Equal(t, store.LeadStatusNew, reply.Lead.Status)
	assert.Empty(t, reply.Matches, "no numeric detail yet")
	assert.Len(t, st.Messages(reply.Lead.ID), 2)

	leadID := reply.Lead.ID
	reply, err = svc.HandleMessage(ctx, &leadID, "credit score 760, we need a $100k loan for inventory, revenue is $800k, 6 years in business")
	require.NoError(t, err)
	require.NotNil(t, reply.Lead)

	profile := reply.Lead.Profile
	assert.True(t, profile.Complete())
	assert.Equal(t, 760, *profile.CreditScore)
	assert.Equal(t, 100000.0, *profile.RequestedAmount)
	assert.Equal(t, 800000.0, *profile.AnnualRevenue)
	assert.Equal(t, 6.0, *profile.YearsInBusiness)
	assert.Equal(t, "Inventory Purchase", profile.LoanPurpose)

	require.Len(t, reply.Matches, 5)
	for i := 1; i < len(reply.Matches); i++ {
		assert.GreaterOrEqual(t, reply.Matches[i-1].Score, reply.Matches[i].Score)
	}
	assert.NotEmpty(t, reply.Matches[0].PartnerName)
	assert.Contains(t, reply.Message, "5 lending partners")

	assert.Len(t, st.Matches(leadID), 5)
	assert.Len(t, st.Messages(leadID), 4)

	_, err = svc.HandleMessage(ctx, &leadID, "thanks")
	require.NoError(t, err)
	assert.Len(t, st.Matches(leadID), 5, "known matches are not recorded twice")
	assert.Len(t, st.Messages(leadID), 6)
}

func TestHandleMessageRejectsInput(t *testing.T) {
	svc, _ := newService(t, rules.NewExtractor())

	_, err := svc.HandleMessage(context.Background(), nil, "   ")
	assert.ErrorIs(t, err, assistant.ErrEmptyMessage)

	missing := 42
	_, err = svc.HandleMessage(context.Background(), &missing, "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandleMessageExtractorFailure(t *testing.T) {
	boom := errors.New("model unavailable")

	svc, _ := newService(t, failingExtractor{err: boom})
	_, err := svc.HandleMessage(context.Background(), nil, "I run a restaurant")
	assert.ErrorIs(t, err, boom)

	withFallback := assistant.ExtractorWithFallback(failingExtractor{err: boom}, rules.NewExtractor(), zap.NewNop())
	svc, _ = newService(t, withFallback)
	reply, err := svc.HandleMessage(context.Background(), nil, "I run a restaurant")
	require.NoError(t, err)
	require.NotNil(t, reply.Lead)
	assert.Equal(t, "Food & Beverage", reply.Lead.Profile.BusinessType)
}

func TestServiceRankAppliesFilters(t *testing.T) {
	st := store.NewMemory(true)
	svc := assistant.NewService(st, rules.NewExtractor(), rules.NewResponder(first), nil,
		filtering.Config{ExcludedPartners: []int{1}}, zap.NewNop())

	profile := matching.Profile{CreditScore: matching.Int(700)}
	results, err := svc.Rank(context.Background(), profile, st.ActivePartners())
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, 1, r.PartnerID)
	}
	assert.Equal(t, matching.VariantAdditive, svc.Scorer().Variant())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Rank(ctx, profile, st.ActivePartners())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceFiltersReflectConfig(t *testing.T) {
	st := store.NewMemory(false)
	svc := assistant.NewService(st, rules.NewExtractor(), rules.NewResponder(first), nil,
		filtering.Config{IncludeInactive: true, LoanTypes: []string{"Term Loan"}}, zap.NewNop())

	statuses := svc.Filters()
	require.Len(t, statuses, 4)

	byName := make(map[string]filtering.Status, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}
	assert.False(t, byName["active"].Enabled)
	assert.NotEmpty(t, byName["active"].Reason)
	assert.True(t, byName["loan_types"].Enabled)
	assert.Equal(t, "Term Loan", byName["loan_types"].Details["loan_types"])
	assert.Equal(t, matching.VariantAdditive, svc.Scorer().Variant())
}
