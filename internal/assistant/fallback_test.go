package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

type staticResponder struct {
	reply string
	err   error
}

func (s staticResponder) Reply(context.Context, Conversation) (string, error) {
	return s.reply, s.err
}

func TestExtractorWithFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	primary := &countingExtractor{err: errors.New("quota exhausted")}
	secondary := &countingExtractor{profile: matching.Profile{BusinessType: "Retail"}}

	extractor := ExtractorWithFallback(primary, secondary, zap.New(core))
	profile, err := extractor.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Retail", profile.BusinessType)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, 1, logs.FilterMessage("falling back to secondary extractor").Len())
}

func TestExtractorWithFallbackPrefersPrimary(t *testing.T) {
	primary := &countingExtractor{profile: matching.Profile{BusinessType: "Technology"}}
	secondary := &countingExtractor{}

	profile, err := ExtractorWithFallback(primary, secondary, nil).Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Technology", profile.BusinessType)
	assert.Zero(t, secondary.calls)
}

func TestExtractorWithFallbackNilPrimary(t *testing.T) {
	secondary := &countingExtractor{}
	assert.Same(t, secondary, ExtractorWithFallback(nil, secondary, nil))
}

func TestExtractorWithFallbackCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	secondary := &countingExtractor{}
	_, err := ExtractorWithFallback(&countingExtractor{err: errors.New("canceled")}, secondary, nil).
		Extract(ctx, []store.Message{{Role: store.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, secondary.calls)
}

func TestResponderWithFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	responder := ResponderWithFallback(staticResponder{err: errors.New("unavailable")}, staticResponder{reply: "fallback"}, zap.New(core))
	reply, err := responder.Reply(context.Background(), Conversation{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", reply)
	assert.Equal(t, 1, logs.FilterMessage("falling back to secondary responder").Len())

	reply, err = ResponderWithFallback(staticResponder{reply: "primary"}, staticResponder{reply: "fallback"}, nil).
		Reply(context.Background(), Conversation{})
	require.NoError(t, err)
	assert.Equal(t, "primary", reply)

	both := ResponderWithFallback(staticResponder{err: errors.New("a")}, staticResponder{err: errors.New("b")}, nil)
	_, err = both.Reply(context.Background(), Conversation{})
	assert.EqualError(t, err, "b")
}

func TestMoneyAndDescribePartner(t *testing.T) {
	assert.Equal(t, "$0", Money(0))
	assert.Equal(t, "$999", Money(999))
	assert.Equal(t, "$1,000", Money(1000))
	assert.Equal(t, "$5,000,000", Money(5_000_000))
	assert.Equal(t, "-$2,500", Money(-2500))

	partner := store.SamplePartners()[1]
	assert.Equal(t,
		"   - Loan Amount: $25,000 - $150,000\n"+
			"   - Interest Rate: 9.5% - 14%\n"+
			"   - Term: revolving\n"+
			"   - Funding Time: 1 - 2 days\n",
		DescribePartner(partner))
}

func TestUserText(t *testing.T) {
	history := []store.Message{
		{Role: store.RoleUser, Content: "a"},
		{Role: store.RoleAssistant, Content: "b"},
		{Role: store.RoleUser, Content: "c"},
	}
	assert.Equal(t, "a c", UserText(history))
}
