package store

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message kinds. Consumers use the kind to tell a plain reply apart from
// a form-trigger notice or a typing placeholder.
const (
	KindMessage = "message"
	KindForm    = "form"
	KindTyping  = "typing"
)

type Session struct {
	ID            string         `json:"id"` // UUID
	TurnCount     int            `json:"turn_count"`
	FormSubmitted bool           `json:"form_submitted"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"` // UUID
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user", "assistant" or "system"
	Content   string    `json:"content"`
	Kind      string    `json:"kind,omitempty"` // "message", "form" or "typing"
	CreatedAt time.Time `json:"created_at"`
}

type Lead struct {
	ID                   string    `json:"id"` // UUID
	SessionID            string    `json:"session_id"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email"`
	ConsultationFor      string    `json:"consultation_for"` // "myself", "my-child", "my-spouse" or "other"
	PrimaryHealthConcern string    `json:"primary_health_concern"`
	TriedOtherTreatments string    `json:"tried_other_treatments"` // "yes" or "no"
	CreatedAt            time.Time `json:"created_at"`
}
