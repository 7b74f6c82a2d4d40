package core

import (
	"strings"

	"fgm.clinic/chat-assistant/internal/store"
)

// Intent signals that qualify a visitor for the intake form during the
// keyword-matching window.
var needSignals = []string{
	"help", "need", "looking for", "want to", "how can",
	"next step", "what should", "ready to", "interested",
	"schedule", "appointment", "consultation",
}

// ShouldTriggerForm decides whether the intake form replaces the
// assistant reply for this turn. Pure function of its two inputs: never
// before the second exchange, always after the fourth, and in between
// only when the message carries an intent signal.
func ShouldTriggerForm(turnCount int, userMessage string) bool {
	if turnCount < 2 {
		return false
	}
	if turnCount > 4 {
		return true
	}

	lowerMessage := strings.ToLower(userMessage)
	for _, signal := range needSignals {
		if strings.Contains(lowerMessage, signal) {
			return true
		}
	}
	return false
}

// SessionState is the form-flow state of a session.
type SessionState string

const (
	StateActive        SessionState = "ACTIVE"
	StateFormPending   SessionState = "FORM_PENDING"
	StateFormSubmitted SessionState = "FORM_SUBMITTED" // terminal
)

// metadata key recorded when a turn fires the form trigger, so resumed
// sessions can replay the pending form.
const metadataFormTriggered = "formTriggered"

// StateOf derives the form-flow state from the stored session fields.
func StateOf(session *store.Session) SessionState {
	if session.FormSubmitted {
		return StateFormSubmitted
	}
	if triggered, ok := session.Metadata[metadataFormTriggered].(bool); ok && triggered {
		return StateFormPending
	}
	return StateActive
}
