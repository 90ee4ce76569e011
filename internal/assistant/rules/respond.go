package rules

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

var (
	welcomeReplies = []string{
		"Welcome to LendMatch! I'm here to help match your business with suitable lending partners. To get started, could you tell me what type of business you run?",
		"Hi there! I'd love to help find the right loan for your business. What industry is your business in?",
		"Welcome! I'm here to help you find the right lending partner. First, what type of business do you operate?",
	}

	yearsQuestions = []string{
		"Great! How many years have you been in business?",
		"Thank you for that information. How long has your business been operating?",
		"I appreciate you sharing that. How many years has your business been established?",
	}

	revenueQuestions = []string{
		"Excellent. What's your approximate annual revenue?",
		"Thanks. Could you share your business's annual revenue?",
		"That's helpful to know. What is your business's yearly revenue?",
	}

	amountQuestions = []string{
		"Thank you. How much funding are you looking for?",
		"Great. What loan amount are you interested in?",
		"Perfect. What amount of funding do you need for your business?",
	}

	purposeQuestions = []string{
		"What would be the primary purpose for this loan?",
		"How do you plan to use these funds?",
		"What is the main reason you're seeking this funding?",
	}

	creditQuestions = []string{
		"Last question - what's your approximate credit score range? (excellent: 750+, good: 700-749, fair: 650-699, or below 650)",
		"One final question - could you share your credit score range? (excellent: 750+, good: 700-749, fair: 650-699, or below 650)",
		"To finalize our matching - what would you say your credit score is? (excellent: 750+, good: 700-749, fair: 650-699, or below 650)",
	}

	noMatchReplies = []string{
		"Based on the information you've provided, I don't see any matching lending partners at this time. This could be due to credit requirements, business tenure, or loan amount requirements. Would you like to discuss alternative options?",
		"I've reviewed your information against our lending partners, but I don't have any matches right now. This is typically related to minimum requirements for credit, time in business, or revenue. Would you like to explore other financing options?",
		"Unfortunately, I couldn't find matching lending partners with the information provided. This is usually due to minimum thresholds for credit score, years in business, or annual revenue. Would you like to discuss what might help improve your chances?",
	}

	matchFoundReplies = []string{
		"Good news! Based on the information you've provided, I've found {count} lending partners that might be a good fit.",
		"Great! I've identified {count} lending partners that match your criteria.",
		"I've found {count} lending options that might work well for your business.",
	}
)

// topMatches is how many matches the summary describes in detail.
const topMatches = 3

// Picker returns an index in [0, n).
type Picker func(n int) int

// Responder asks for the first missing detail and summarizes matches once the profile is
// complete.
type Responder struct {
	pick Picker
}

// NewResponder creates a responder. A nil pick chooses replies at random.
func NewResponder(pick Picker) *Responder {
	if pick == nil {
		pick = rand.IntN
	}
	return &Responder{pick: pick}
}

var _ assistant.Responder = (*Responder)(nil)

func (r *Responder) Reply(_ context.Context, conv assistant.Conversation) (string, error) {
	if !hasUserMessage(conv.History) {
		return r.choose(welcomeReplies), nil
	}

	profile := conv.Profile()
	if profile.Complete() {
		if len(conv.Matches) == 0 {
			return r.choose(noMatchReplies), nil
		}
		return r.summary(conv.Matches), nil
	}

	return r.nextQuestion(profile), nil
}

func (r *Responder) nextQuestion(p matching.Profile) string {
	switch {
	case p.BusinessType == "":
		return r.choose(welcomeReplies)
	case p.YearsInBusiness == nil:
		return r.choose(yearsQuestions)
	case p.AnnualRevenue == nil:
		return r.choose(revenueQuestions)
	case p.RequestedAmount == nil:
		return r.choose(amountQuestions)
	case p.LoanPurpose == "":
		return r.choose(purposeQuestions)
	case p.CreditScore == nil:
		return r.choose(creditQuestions)
	default:
		return "Thank you for providing all that information. Let me analyze the best matches for your business."
	}
}

func (r *Responder) summary(results []matching.Result) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(r.choose(matchFoundReplies), "{count}", strconv.Itoa(len(results))))
	b.WriteString("\n\nHere are your top options:\n\n")

	for i, res := range matching.Top(results, topMatches) {
		if res.Partner == nil {
			fmt.Fprintf(&b, "%d. Partner #%d\n   - Match Score: %d%%\n\n", i+1, res.PartnerID, res.Score)
			continue
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, res.Partner.Name, res.Partner.LoanType)
		fmt.Fprintf(&b, "   - Match Score: %d%%\n", res.Score)
		b.WriteString(assistant.DescribePartner(*res.Partner))
		b.WriteString("\n")
	}

	b.WriteString("Would you like to proceed with one of these options or explore more alternatives?")
	return b.String()
}

func (r *Responder) choose(options []string) string {
	i := r.pick(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}

func hasUserMessage(history []store.Message) bool {
	for _, msg := range history {
		if msg.Role == store.RoleUser {
			return true
		}
	}
	return false
}
