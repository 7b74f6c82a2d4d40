package core

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"fgm.clinic/chat-assistant/internal/store"
)

// LeadForm carries the intake form fields as submitted by the caller.
type LeadForm struct {
	FullName             string `json:"full_name"`
	Email                string `json:"email"`
	ConsultationFor      string `json:"consultation_for"`
	PrimaryHealthConcern string `json:"primary_health_concern"`
	TriedOtherTreatments string `json:"tried_other_treatments"`
}

var consultationForValues = map[string]bool{
	"myself":    true,
	"my-child":  true,
	"my-spouse": true,
	"other":     true,
}

// LeadService validates and stores intake form submissions.
type LeadService struct {
	store store.Store
}

func NewLeadService(db store.Store) *LeadService {
	return &LeadService{store: db}
}

// SubmitLead validates the form, persists the lead and marks the owning
// session's form as submitted. The returned message is caller-facing
// confirmation copy.
func (s *LeadService) SubmitLead(sessionID string, form LeadForm) (*store.Lead, string, error) {
	if sessionID == "" {
		return nil, "", ErrMissingSession
	}
	if err := validateLeadForm(form); err != nil {
		return nil, "", err
	}

	lead := store.Lead{
		SessionID:            sessionID,
		FullName:             strings.TrimSpace(form.FullName),
		Email:                strings.TrimSpace(form.Email),
		ConsultationFor:      form.ConsultationFor,
		PrimaryHealthConcern: strings.TrimSpace(form.PrimaryHealthConcern),
		TriedOtherTreatments: form.TriedOtherTreatments,
	}
	if err := s.store.CreateLead(&lead); err != nil {
		return nil, "", fmt.Errorf("failed to store lead: %w", err)
	}

	// The flag flip powers the single-shot form display; if the session
	// row is gone the lead itself is still worth keeping.
	if err := s.store.MarkFormSubmitted(sessionID); err != nil {
		log.Printf("Failed to mark form submitted for session %s: %v", sessionID, err)
	}

	return &lead, leadConfirmationMessage, nil
}

func validateLeadForm(form LeadForm) error {
	var fields []FieldError

	// Minimum lengths count characters, not bytes, so multibyte names
	// and concerns measure the same as ASCII ones.
	if utf8.RuneCountInString(strings.TrimSpace(form.FullName)) < 2 {
		fields = append(fields, FieldError{Field: "full_name", Message: "Full name is required"})
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(form.Email)); err != nil {
		fields = append(fields, FieldError{Field: "email", Message: "Valid email is required"})
	}
	if !consultationForValues[form.ConsultationFor] {
		fields = append(fields, FieldError{Field: "consultation_for", Message: "Must be one of: myself, my-child, my-spouse, other"})
	}
	if utf8.RuneCountInString(strings.TrimSpace(form.PrimaryHealthConcern)) < 10 {
		fields = append(fields, FieldError{Field: "primary_health_concern", Message: "Please describe your health concern"})
	}
	if form.TriedOtherTreatments != "yes" && form.TriedOtherTreatments != "no" {
		fields = append(fields, FieldError{Field: "tried_other_treatments", Message: "Must be yes or no"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
