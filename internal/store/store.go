package store

// Store is the persistence contract for sessions, messages and leads.
// Read methods return (nil, nil) when the record does not exist.
type Store interface {
	// Sessions
	CreateSession() (*Session, error)
	GetSession(id string) (*Session, error)
	// IncrementSessionTurn atomically bumps the turn counter and returns
	// the updated session. Concurrent turns on the same session each get
	// a distinct count.
	IncrementSessionTurn(id string) (*Session, error)
	SetSessionMetadata(id string, key string, value any) error
	// MarkFormSubmitted sets the form-submitted flag. The flag is
	// set-only; no operation clears it.
	MarkFormSubmitted(id string) error

	// Messages
	CreateMessage(msg *Message) error
	// GetMessagesBySession returns messages in creation order.
	GetMessagesBySession(sessionID string) ([]Message, error)

	// Leads
	CreateLead(lead *Lead) error
	GetLeadsBySession(sessionID string) ([]Lead, error)

	Close() error
}
