package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spigell/lendmatch/internal/matching"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. All methods are safe for concurrent use. Returned records
// are values and must not be modified through their pointer fields.
type Memory struct {
	mu sync.RWMutex

	partners map[int]matching.Partner
	leads    map[int]Lead
	messages map[int]Message
	matches  map[int]Match

	nextPartner int
	nextLead    int
	nextMessage int
	nextMatch   int

	now func() time.Time
}

// Option configures a Memory store.
type Option func(*Memory)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty store. When seed is true the sample partner catalog is loaded.
func NewMemory(seed bool, opts ...Option) *Memory {
	m := &Memory{
		partners:    make(map[int]matching.Partner),
		leads:       make(map[int]Lead),
		messages:    make(map[int]Message),
		matches:     make(map[int]Match),
		nextPartner: 1,
		nextLead:    1,
		nextMessage: 1,
		nextMatch:   1,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if seed {
		for _, p := range SamplePartners() {
			p.ID = m.nextPartner
			m.partners[p.ID] = p
			m.nextPartner++
		}
	}

	return m
}

// Partner returns the partner with the given ID.
func (m *Memory) Partner(id int) (matching.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.partners[id]
	if !ok {
		return matching.Partner{}, fmt.Errorf("partner %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// Partners returns the whole catalog ordered by ID.
func (m *Memory) Partners() []matching.Partner {
	return m.listPartners(false)
}

// ActivePartners returns active partners ordered by ID.
func (m *Memory) ActivePartners() []matching.Partner {
	return m.listPartners(true)
}

func (m *Memory) listPartners(activeOnly bool) []matching.Partner {
	m.mu.RLock()
	defer m.mu.RUnlock()

	partners := make([]matching.Partner, 0, len(m.partners))
	for _, p := range m.partners {
		if activeOnly && !p.Active {
			continue
		}
		partners = append(partners, p)
	}

	sort.Slice(partners, func(i, j int) bool { return partners[i].ID < partners[j].ID })
	return partners
}

// CreatePartner assigns the next ID to p and stores it.
func (m *Memory) CreatePartner(p matching.Partner) (matching.Partner, error) {
	if err := p.Check(); err != nil {
		return matching.Partner{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextPartner
	m.nextPartner++
	m.partners[p.ID] = p
	return p, nil
}

// UpdatePartner applies fn to a copy of the stored partner and saves the result. The ID
// cannot be changed.
func (m *Memory) UpdatePartner(id int, fn func(*matching.Partner)) (matching.Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.partners[id]
	if !ok {
		return matching.Partner{}, fmt.Errorf("partner %d: %w", id, ErrNotFound)
	}

	fn(&p)
	p.ID = id
	if err := p.Check(); err != nil {
		return matching.Partner{}, err
	}

	m.partners[id] = p
	return p, nil
}

// DeletePartner removes a partner from the catalog.
func (m *Memory) DeletePartner(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.partners[id]; !ok {
		return fmt.Errorf("partner %d: %w", id, ErrNotFound)
	}
	delete(m.partners, id)
	return nil
}

// Lead returns the lead with the given ID.
func (m *Memory) Lead(id int) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leads[id]
	if !ok {
		return Lead{}, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	return l, nil
}

// Leads returns every lead ordered by ID.
func (m *Memory) Leads() []Lead {
	m.mu.RLock()
	defer m.mu.RUnlock()

	leads := make([]Lead, 0, len(m.leads))
	for _, l := range m.leads {
		leads = append(leads, l)
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ID < leads[j].ID })
	return leads
}

// CreateLead stores a new lead with status "new".
func (m *Memory) CreateLead(p matching.Profile) Lead {
	if p.BusinessName == "" {
		p.BusinessName = DefaultBusinessName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l := Lead{
		ID:        m.nextLead,
		Profile:   matching.Profile{}.Merge(p),
		Status:    LeadStatusNew,
		CreatedAt: m.now().UTC(),
	}
	m.nextLead++
	m.leads[l.ID] = l
	return l
}

// UpdateLead merges the present fields of p into the stored lead profile.
func (m *Memory) UpdateLead(id int, p matching.Profile) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leads[id]
	if !ok {
		return Lead{}, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}

	l.Profile = l.Profile.Merge(p)
	m.leads[id] = l
	return l, nil
}

// Messages returns the conversation of a lead ordered by timestamp.
func (m *Memory) Messages(leadID int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var messages []Message
	for _, msg := range m.messages {
		if msg.LeadID == leadID {
			messages = append(messages, msg)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages
}

// AddMessage appends a message to the conversation of an existing lead.
func (m *Memory) AddMessage(leadID int, role Role, content string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[leadID]; !ok {
		return Message{}, fmt.Errorf("lead %d: %w", leadID, ErrNotFound)
	}

	msg := Message{
		ID:        m.nextMessage,
		LeadID:    leadID,
		Role:      role,
		Content:   content,
		Timestamp: m.now().UTC(),
	}
	m.nextMessage++
	m.messages[msg.ID] = msg
	return msg, nil
}

// Matches returns the recorded matches of a lead, best score first.
func (m *Memory) Matches(leadID int) []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, match := range m.matches {
		if match.LeadID == leadID {
			matches = append(matches, match)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// CreateMatch records a partner match for a lead. A lead can be matched with a partner once.
func (m *Memory) CreateMatch(leadID, partnerID, score int) (Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[leadID]; !ok {
		return Match{}, fmt.Errorf("lead %d: %w", leadID, ErrNotFound)
	}
	if _, ok := m.partners[partnerID]; !ok {
		return Match{}, fmt.Errorf("partner %d: %w", partnerID, ErrNotFound)
	}
	if _, ok := m.findMatch(leadID, partnerID); ok {
		return Match{}, fmt.Errorf("match of lead %d with partner %d: %w", leadID, partnerID, ErrAlreadyExists)
	}

	match := Match{
		ID:        m.nextMatch,
		LeadID:    leadID,
		PartnerID: partnerID,
		Score:     score,
	}
	m.nextMatch++
	m.matches[match.ID] = match
	return match, nil
}

// UpdateMatch changes the selected and submitted flags of a match. SubmittedAt is stamped
// the first time the match is submitted.
func (m *Memory) UpdateMatch(leadID, partnerID int, upd MatchUpdate) (Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.findMatch(leadID, partnerID)
	if !ok {
		return Match{}, fmt.Errorf("match of lead %d with partner %d: %w", leadID, partnerID, ErrNotFound)
	}

	if upd.Selected != nil {
		match.Selected = *upd.Selected
	}

	if upd.Submitted != nil {
		if *upd.Submitted && !match.Submitted {
			at := m.now().UTC()
			match.SubmittedAt = &at
		}
		match.Submitted = *upd.Submitted
	}

	m.matches[match.ID] = match
	return match, nil
}

// findMatch expects m.mu to be held.
func (m *Memory) findMatch(leadID, partnerID int) (Match, bool) {
	for _, match := range m.matches {
		if match.LeadID == leadID && match.PartnerID == partnerID {
			return match, true
		}
	}
	return Match{}, false
}
