package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/sheets"
	"github.com/spigell/lendmatch/internal/store"
)

type chatRequest struct {
	Message string `json:"message" validate:"required"`
	LeadID  *int   `json:"leadId" validate:"omitempty,gt=0"`
}

type syncRequest struct {
	APIKey        string `json:"apiKey"`
	SpreadsheetID string `json:"spreadsheetId"`
	Range         string `json:"range"`
}

type matchResponse struct {
	store.Match
	Partner     *matching.Partner     `json:"partner"`
	Explanation *matching.Explanation `json:"explanation,omitempty"`
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, &ErrValidation{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

func (s *Server) handleListPartners(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.ActivePartners())
}

func (s *Server) handleCreatePartner(w http.ResponseWriter, r *http.Request) {
	p := matching.Partner{Active: true}
	if err := s.decode(w, r, &p); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	p.ID = 0

	if err := s.validate.Struct(p); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	created, err := s.store.CreatePartner(p)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, created)
}

// handleUpdatePartner applies the fields present in the body to the stored partner.
func (s *Server) handleUpdatePartner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	current, err := s.store.Partner(id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var patch map[string]json.RawMessage
	if err := s.decode(w, r, &patch); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	updated, err := applyPatch(current, patch)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	updated.ID = id

	if err := s.validate.Struct(updated); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	saved, err := s.store.UpdatePartner(id, func(p *matching.Partner) { *p = updated })
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, saved)
}

// applyPatch round-trips through JSON so the result shares no pointers with current.
func applyPatch(current matching.Partner, patch map[string]json.RawMessage) (matching.Partner, error) {
	data, err := json.Marshal(current)
	if err != nil {
		return matching.Partner{}, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return matching.Partner{}, err
	}
	for k, v := range patch {
		merged[k] = v
	}

	data, err = json.Marshal(merged)
	if err != nil {
		return matching.Partner{}, err
	}

	var updated matching.Partner
	if err := json.Unmarshal(data, &updated); err != nil {
		return matching.Partner{}, &ErrBadRequest{Err: err}
	}
	return updated, nil
}

func (s *Server) handleDeletePartner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	if err := s.store.DeletePartner(id); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLeads(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.Leads())
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var profile matching.Profile
	if err := s.decode(w, r, &profile); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	if err := s.validate.Var(profile.BusinessName, "required,max=200"); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "businessName", Message: "is required"})
		return
	}
	if err := s.validate.Var(profile.Email, "omitempty,email"); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "email", Message: "must be a valid email address"})
		return
	}

	s.jsonResponse(w, http.StatusCreated, s.store.CreateLead(profile))
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	lead, err := s.store.Lead(id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, lead)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	if _, err := s.store.Lead(id); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, s.store.Messages(id))
}

// handleListMatches returns the recorded matches with the partner and a fresh explanation
// of the score against the current lead profile.
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	lead, err := s.store.Lead(id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	matches := s.store.Matches(id)
	resp := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		item := matchResponse{Match: m}
		partner, err := s.store.Partner(m.PartnerID)
		switch {
		case err == nil:
			explanation := matching.Explain(lead.Profile, partner, s.service.Scorer())
			item.Partner = &partner
			item.Explanation = &explanation
		case errors.Is(err, store.ErrNotFound):
		default:
			s.errorResponse(w, r, err)
			return
		}
		resp = append(resp, item)
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	leadID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var upd store.MatchUpdate
	if err := s.decode(w, r, &upd); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if upd.Selected == nil && upd.Submitted == nil {
		s.errorResponse(w, r, &ErrValidation{Message: "selected or submitted is required"})
		return
	}

	match, err := s.store.UpdateMatch(leadID, partnerID, upd)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, match)
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	reply, err := s.service.HandleMessage(r.Context(), req.LeadID, req.Message)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, reply)
}

// handleSyncPartners imports the catalog spreadsheet. Body fields override the configured
// spreadsheet; an empty body uses the configuration as is.
func (s *Server) handleSyncPartners(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := s.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, r, err)
		return
	}

	cfg := s.sheets
	if v := strings.TrimSpace(req.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(req.SpreadsheetID); v != "" {
		cfg.SpreadsheetID = v
	}
	if v := strings.TrimSpace(req.Range); v != "" {
		cfg.Range = v
	}

	if cfg.SpreadsheetID == "" || (cfg.APIKey == "" && cfg.CredentialsFile == "") {
		s.errorResponse(w, r, &ErrValidation{Message: "Missing required Google Sheets configuration"})
		return
	}

	fetcher, err := s.newFetcher(r.Context(), cfg)
	if err != nil {
		s.errorResponse(w, r, fmt.Errorf("create sheets client: %w", err))
		return
	}

	res, err := sheets.Sync(r.Context(), fetcher, s.store, s.logger.With(zap.String("request_id", RequestID(r.Context()))))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, res)
}
