// Package store keeps leads, lending partners, chat messages and lead-partner matches.
package store

import (
	"errors"
	"time"

	"github.com/spigell/lendmatch/internal/matching"
)

var (
	// ErrNotFound is returned when a record with the requested key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a match for the same lead and partner is recorded twice.
	ErrAlreadyExists = errors.New("already exists")
)

// LeadStatusNew is the status of every freshly created lead.
const LeadStatusNew = "new"

// DefaultBusinessName names leads that have not told us their business name yet.
const DefaultBusinessName = "Business Lead"

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Lead is an applicant who engaged with the assistant.
type Lead struct {
	ID        int              `json:"id"`
	Profile   matching.Profile `json:"profile"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Message is one chat turn of a lead conversation.
type Message struct {
	ID        int       `json:"id"`
	LeadID    int       `json:"leadId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Match records a ranked partner for a lead and what the lead did with it.
type Match struct {
	ID          int        `json:"id"`
	LeadID      int        `json:"leadId"`
	PartnerID   int        `json:"partnerId"`
	Score       int        `json:"matchScore"`
	Selected    bool       `json:"selected"`
	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// MatchUpdate changes the flags of a match. Nil fields are left untouched.
type MatchUpdate struct {
	Selected  *bool `json:"selected"`
	Submitted *bool `json:"submitted"`
}

// Store is the repository used by the assistant, the HTTP API and the partner import.
type Store interface {
	Partner(id int) (matching.Partner, error)
	Partners() []matching.Partner
	ActivePartners() []matching.Partner
	CreatePartner(p matching.Partner) (matching.Partner, error)
	UpdatePartner(id int, fn func(*matching.Partner)) (matching.Partner, error)
	DeletePartner(id int) error

	Lead(id int) (Lead, error)
	Leads() []Lead
	CreateLead(p matching.Profile) Lead
	UpdateLead(id int, p matching.Profile) (Lead, error)

	Messages(leadID int) []Message
	AddMessage(leadID int, role Role, content string) (Message, error)

	Matches(leadID int) []Match
	CreateMatch(leadID, partnerID, score int) (Match, error)
	UpdateMatch(leadID, partnerID int, upd MatchUpdate) (Match, error)
}
