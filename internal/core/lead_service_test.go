package core

import (
	"errors"
	"testing"

	"fgm.clinic/chat-assistant/internal/store"
)

func validLeadForm() LeadForm {
	return LeadForm{
		FullName:             "Jamie Rivera",
		Email:                "jamie@example.com",
		ConsultationFor:      "my-child",
		PrimaryHealthConcern: "My son has been struggling with focus and regression for two years.",
		TriedOtherTreatments: "yes",
	}
}

func TestSubmitLeadSuccess(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewLeadService(db)

	session, err := db.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	lead, confirmation, err := svc.SubmitLead(session.ID, validLeadForm())
	if err != nil {
		t.Fatalf("SubmitLead failed: %v", err)
	}
	if lead.ID == "" {
		t.Error("lead has no identifier")
	}
	if lead.SessionID != session.ID {
		t.Errorf("lead session = %q, want %q", lead.SessionID, session.ID)
	}
	if confirmation == "" {
		t.Error("no confirmation message returned")
	}

	session, _ = db.GetSession(session.ID)
	if !session.FormSubmitted {
		t.Error("form-submitted flag not set")
	}
	if StateOf(session) != StateFormSubmitted {
		t.Errorf("session state = %s, want %s", StateOf(session), StateFormSubmitted)
	}

	stored, _ := db.GetLeadsBySession(lead.SessionID)
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored lead, got %d", len(stored))
	}
}

func TestSubmitLeadMissingSession(t *testing.T) {
	svc := NewLeadService(store.NewMemoryStore())

	_, _, err := svc.SubmitLead("", validLeadForm())
	if !errors.Is(err, ErrMissingSession) {
		t.Errorf("expected ErrMissingSession, got %v", err)
	}
}

func TestSubmitLeadValidation(t *testing.T) {
	svc := NewLeadService(store.NewMemoryStore())

	cases := []struct {
		name   string
		mutate func(*LeadForm)
		field  string
	}{
		{"short name", func(f *LeadForm) { f.FullName = "J" }, "full_name"},
		{"bad email", func(f *LeadForm) { f.Email = "not-an-email" }, "email"},
		{"bad relationship", func(f *LeadForm) { f.ConsultationFor = "my-dog" }, "consultation_for"},
		{"short concern", func(f *LeadForm) { f.PrimaryHealthConcern = "anxiety" }, "primary_health_concern"},
		{"bad treatments flag", func(f *LeadForm) { f.TriedOtherTreatments = "maybe" }, "tried_other_treatments"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validLeadForm()
			tc.mutate(&form)

			_, _, err := svc.SubmitLead("some-session", form)
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, f := range validation.Fields {
				if f.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("field %q missing from details: %+v", tc.field, validation.Fields)
			}
		})
	}
}

func TestSubmitLeadAllFieldsInvalid(t *testing.T) {
	svc := NewLeadService(store.NewMemoryStore())

	_, _, err := svc.SubmitLead("some-session", LeadForm{})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validation.Fields) != 5 {
		t.Errorf("expected 5 field errors, got %d: %+v", len(validation.Fields), validation.Fields)
	}
}

func TestSubmitLeadMultibyteLengths(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewLeadService(db)

	session, err := db.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// A single CJK character is 3 bytes but only one character; it must
	// still fail the two-character name minimum.
	form := validLeadForm()
	form.FullName = "字"
	_, _, err = svc.SubmitLead(session.ID, form)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for one-character name, got %v", err)
	}

	// Two characters and a ten-character concern satisfy the minimums
	// regardless of byte width.
	form = validLeadForm()
	form.FullName = "李明"
	form.PrimaryHealthConcern = "孩子注意力不集中两年了"
	if _, _, err := svc.SubmitLead(session.ID, form); err != nil {
		t.Fatalf("SubmitLead failed for multibyte fields: %v", err)
	}
}

func TestSubmitLeadUnknownSessionStillStoresLead(t *testing.T) {
	// The flag flip is best-effort; a lead against a vanished session is
	// kept rather than dropped.
	db := store.NewMemoryStore()
	svc := NewLeadService(db)

	lead, _, err := svc.SubmitLead("vanished", validLeadForm())
	if err != nil {
		t.Fatalf("SubmitLead failed: %v", err)
	}
	stored, _ := db.GetLeadsBySession("vanished")
	if len(stored) != 1 || stored[0].ID != lead.ID {
		t.Errorf("lead not stored for vanished session: %+v", stored)
	}
}
