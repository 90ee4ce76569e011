package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/filtering"
	"github.com/spigell/lendmatch/internal/logger"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/metrics"
	"github.com/spigell/lendmatch/internal/store"
)

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("message content is required")

// Match is a ranked partner as shown to the applicant.
type Match struct {
	PartnerID   int    `json:"partnerId"`
	PartnerName string `json:"partnerName"`
	LoanType    string `json:"loanType"`
	Score       int    `json:"score"`
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Message string      `json:"message"`
	Lead    *store.Lead `json:"lead"`
	Matches []Match     `json:"matches"`
}

// Service wires the extractor, the ranking and the responder around the store.
type Service struct {
	store     store.Store
	extractor Extractor
	responder Responder
	scorer    matching.Scorer
	filters   filtering.Config
	logger    *zap.Logger
}

// NewService creates the chat service. A nil scorer selects the additive formula.
func NewService(st store.Store, extractor Extractor, responder Responder, scorer matching.Scorer, filters filtering.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = matching.NewScorer(matching.VariantAdditive)
	}

	return &Service{
		store:     st,
		extractor: extractor,
		responder: responder,
		scorer:    scorer,
		filters:   filters,
		logger:    log,
	}
}

// Scorer returns the configured scorer.
func (s *Service) Scorer() matching.Scorer { return s.scorer }

// Filters reports the state of the pre-ranking catalog filters.
func (s *Service) Filters() []filtering.Status {
	return filtering.Describe(filtering.Default(s.filters, s.logger))
}

// HandleMessage processes one user message. When leadID is nil a lead is created as soon as
// the conversation yields a detail. Messages are stored only once a lead exists.
func (s *Service) HandleMessage(ctx context.Context, leadID *int, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ChatMessages.WithLabelValues("rejected").Inc()
		return nil, ErrEmptyMessage
	}

	var (
		history []store.Message
		lead    *store.Lead
	)

	if leadID != nil {
		existing, err := s.store.Lead(*leadID)
		if err != nil {
			metrics.ChatMessages.WithLabelValues("rejected").Inc()
			return nil, err
		}
		lead = &existing
		history = s.store.Messages(existing.ID)
	}

	history = append(history, store.Message{Role: store.RoleUser, Content: text})

	extracted, err := s.extractor.Extract(ctx, history)
	if err != nil {
		metrics.ChatMessages.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("extract profile: %w", err)
	}

	switch {
	case extracted.Empty():
	case lead == nil:
		created := s.store.CreateLead(extracted)
		lead = &created
		logger.WithLead(s.logger, created.ID).Info("lead created")
	default:
		updated, err := s.store.UpdateLead(lead.ID, extracted)
		if err != nil {
			metrics.ChatMessages.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("update lead: %w", err)
		}
		lead = &updated
	}

	catalog := s.store.ActivePartners()

	var results []matching.Result
	if lead != nil {
		results, err = s.Rank(ctx, lead.Profile, catalog)
		if err != nil {
			metrics.ChatMessages.WithLabelValues("failed").Inc()
			return nil, err
		}
		s.recordMatches(lead.ID, results)
	}

	message, err := s.responder.Reply(ctx, Conversation{
		History: history,
		Catalog: catalog,
		Lead:    lead,
		Matches: results,
	})
	if err != nil {
		metrics.ChatMessages.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	if lead != nil {
		if _, err := s.store.AddMessage(lead.ID, store.RoleUser, text); err != nil {
			return nil, fmt.Errorf("store user message: %w", err)
		}
		if _, err := s.store.AddMessage(lead.ID, store.RoleAssistant, message); err != nil {
			return nil, fmt.Errorf("store assistant message: %w", err)
		}
	}

	metrics.ChatMessages.WithLabelValues("handled").Inc()

	return &Reply{
		Message: message,
		Lead:    lead,
		Matches: toMatches(results),
	}, nil
}

// Rank runs the catalog filters and scores the profile against what is left.
func (s *Service) Rank(ctx context.Context, profile matching.Profile, catalog []matching.Partner) ([]matching.Result, error) {
	partners, err := filtering.Run(ctx, s.logger, filtering.Default(s.filters, s.logger), catalog)
	if err != nil {
		return nil, fmt.Errorf("filter catalog: %w", err)
	}

	start := time.Now()
	results := matching.Rank(profile, partners, s.scorer)
	metrics.RankDuration.WithLabelValues(string(s.scorer.Variant())).Observe(time.Since(start).Seconds())
	metrics.MatchesFound.Observe(float64(len(results)))
	s.logger.Debug("catalog ranked",
		logger.Variant(string(s.scorer.Variant())),
		zap.Int("candidates", len(partners)),
		zap.Int("matches", len(results)),
	)

	return results, nil
}

func (s *Service) recordMatches(leadID int, results []matching.Result) {
	known := make(map[int]struct{})
	for _, m := range s.store.Matches(leadID) {
		known[m.PartnerID] = struct{}{}
	}

	for _, r := range results {
		if _, ok := known[r.PartnerID]; ok {
			continue
		}
		if _, err := s.store.CreateMatch(leadID, r.PartnerID, r.Score); err != nil {
			logger.WithLead(s.logger, leadID).Warn("recording match failed",
				logger.Partner(r.PartnerID),
				zap.Error(err),
			)
		}
	}
}

func toMatches(results []matching.Result) []Match {
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		m := Match{PartnerID: r.PartnerID, Score: r.Score}
		if r.Partner != nil {
			m.PartnerName = r.Partner.Name
			m.LoanType = r.Partner.LoanType
		}
		matches = append(matches, m)
	}
	return matches
}
