package gemini

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
	"github.com/spigell/lendmatch/internal/utils"
)

//go:embed prompts/reply.md
var replyPrompt string

// Responder asks Gemini for the next assistant message.
type Responder struct {
	generator conversational
	logger    *zap.Logger
	maxLogLen int
}

var _ assistant.Responder = (*Responder)(nil)

// NewResponder creates a Gemini backed responder.
func NewResponder(generator conversational, logger *zap.Logger, maxLogLength int) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Responder{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

func (r *Responder) Reply(ctx context.Context, conv assistant.Conversation) (string, error) {
	history, message := splitLastUserMessage(conv.History)
	if message == "" {
		return "", errors.New("conversation has no user message")
	}

	system := buildSystemPrompt(conv)

	r.logger.Debug("gemini reply request",
		zap.Int("history_turns", len(history)),
		zap.Int("system_length", utf8.RuneCountInString(system)),
		zap.String("message_preview", utils.TruncateForLog(message, r.maxLogLen)),
	)

	reply, err := r.generator.Converse(ctx, system, history, message)
	if err != nil {
		return "", err
	}

	r.logger.Debug("gemini reply response",
		zap.Int("response_length", utf8.RuneCountInString(reply)),
		zap.String("response_preview", utils.TruncateForLog(reply, r.maxLogLen)),
	)

	return reply, nil
}

// splitLastUserMessage returns the turns before the last user message and its content.
func splitLastUserMessage(messages []store.Message) ([]Turn, string) {
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == store.RoleUser {
			last = i
			break
		}
	}
	if last == -1 {
		return nil, ""
	}

	turns := make([]Turn, 0, last)
	for _, msg := range messages[:last] {
		turns = append(turns, Turn{FromModel: msg.Role == store.RoleAssistant, Text: msg.Content})
	}
	return turns, strings.TrimSpace(messages[last].Content)
}

func buildSystemPrompt(conv assistant.Conversation) string {
	template := replyPrompt
	if strings.TrimSpace(template) == "" {
		template = "Partners:\n{{PARTNERS}}\n\nApplicant:\n{{PROFILE}}\n\n{{MATCHES}}"
	}

	prompt := strings.ReplaceAll(template, "{{PARTNERS}}", describeCatalog(conv.Catalog))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE}}", describeProfile(conv.Profile()))
	prompt = strings.ReplaceAll(prompt, "{{MATCHES}}", describeMatches(conv))
	return prompt
}

func describeCatalog(partners []matching.Partner) string {
	if len(partners) == 0 {
		return "(no active partners)"
	}

	var b strings.Builder
	for _, p := range partners {
		fmt.Fprintf(&b, "%s (%s):\n", p.Name, p.LoanType)
		fmt.Fprintf(&b, "   - Minimum Credit Score: %d\n", p.MinCreditScore)
		fmt.Fprintf(&b, "   - Minimum Annual Revenue: %s\n", assistant.Money(p.MinAnnualRevenue))
		fmt.Fprintf(&b, "   - Minimum Years in Business: %g\n", p.MinYearsInBusiness)
		b.WriteString(assistant.DescribePartner(p))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func describeProfile(p matching.Profile) string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}

	add("Business name", p.BusinessName)
	add("Business type", p.BusinessType)
	if p.YearsInBusiness != nil {
		add("Years in business", fmt.Sprintf("%g", *p.YearsInBusiness))
	}
	if p.AnnualRevenue != nil {
		add("Annual revenue", assistant.Money(*p.AnnualRevenue))
	}
	if p.RequestedAmount != nil {
		add("Requested amount", assistant.Money(*p.RequestedAmount))
	}
	add("Loan purpose", p.LoanPurpose)
	if p.CreditScore != nil {
		add("Credit score", fmt.Sprintf("%d", *p.CreditScore))
	}

	if len(lines) == 0 {
		return "(nothing yet)"
	}
	return strings.Join(lines, "\n")
}

func describeMatches(conv assistant.Conversation) string {
	if conv.Lead == nil {
		return ""
	}
	if len(conv.Matches) == 0 {
		return "No lending partner matches the applicant's details so far."
	}

	var b strings.Builder
	b.WriteString("Based on the applicant's information, these are the matching lending partners:\n")
	for _, m := range conv.Matches {
		if m.Partner == nil {
			continue
		}
		fmt.Fprintf(&b, "\n- %s (%s)\n   - Match Score: %d%%\n", m.Partner.Name, m.Partner.LoanType, m.Score)
		b.WriteString(assistant.DescribePartner(*m.Partner))
	}
	return strings.TrimSpace(b.String())
}
