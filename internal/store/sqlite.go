package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chat_sessions (
        id TEXT PRIMARY KEY, -- UUID
        turn_count INTEGER NOT NULL DEFAULT 0,
        form_submitted BOOLEAN NOT NULL DEFAULT FALSE,
        metadata TEXT, -- JSON object, nullable
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
        content TEXT NOT NULL,
        kind TEXT, -- 'message', 'form' or 'typing'
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (session_id) REFERENCES chat_sessions (id)
    );
    CREATE INDEX IF NOT EXISTS messages_session_id_idx ON messages (session_id);

    CREATE TABLE IF NOT EXISTS leads (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        full_name TEXT NOT NULL,
        email TEXT NOT NULL,
        consultation_for TEXT NOT NULL CHECK (consultation_for IN ('myself', 'my-child', 'my-spouse', 'other')),
        primary_health_concern TEXT NOT NULL,
        tried_other_treatments TEXT NOT NULL CHECK (tried_other_treatments IN ('yes', 'no')),
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (session_id) REFERENCES chat_sessions (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Session methods
func (s *SQLiteStore) CreateSession() (*Session, error) {
	sessionID := uuid.NewString()
	now := time.Now()

	stmt, err := s.db.Prepare("INSERT INTO chat_sessions (id, turn_count, form_submitted, created_at, updated_at) VALUES (?, 0, FALSE, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare session insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(sessionID, now, now); err != nil {
		return nil, fmt.Errorf("failed to execute session insert: %w", err)
	}
	return &Session{ID: sessionID, TurnCount: 0, FormSubmitted: false, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow("SELECT id, turn_count, form_submitted, metadata, created_at, updated_at FROM chat_sessions WHERE id = ?", id)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*Session, error) {
	var session Session
	var metadata sql.NullString
	err := row.Scan(&session.ID, &session.TurnCount, &session.FormSubmitted, &metadata, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session metadata: %w", err)
		}
	}
	return &session, nil
}

func (s *SQLiteStore) IncrementSessionTurn(id string) (*Session, error) {
	// Single UPDATE so concurrent increments on the same session cannot
	// lose a count.
	res, err := s.db.Exec("UPDATE chat_sessions SET turn_count = turn_count + 1, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to increment turn count: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, nil // Not found
	}
	return s.GetSession(id)
}

func (s *SQLiteStore) SetSessionMetadata(id string, key string, value any) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session not found, metadata not updated")
	}

	if session.Metadata == nil {
		session.Metadata = make(map[string]any)
	}
	session.Metadata[key] = value

	metadataBytes, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal session metadata: %w", err)
	}

	_, err = s.db.Exec("UPDATE chat_sessions SET metadata = ?, updated_at = ? WHERE id = ?", string(metadataBytes), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkFormSubmitted(id string) error {
	res, err := s.db.Exec("UPDATE chat_sessions SET form_submitted = TRUE, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark form submitted: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("session not found, form flag not updated")
	}
	return nil
}

// Message methods
func (s *SQLiteStore) CreateMessage(msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.CreatedAt = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO messages (id, session_id, role, content, kind, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	var kind sql.NullString
	if msg.Kind != "" {
		kind = sql.NullString{String: msg.Kind, Valid: true}
	}
	_, err = stmt.Exec(msg.ID, msg.SessionID, msg.Role, msg.Content, kind, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessagesBySession(sessionID string) ([]Message, error) {
	// rowid breaks created_at ties so replayed history keeps insertion
	// order even within the same timestamp.
	query := "SELECT id, session_id, role, content, kind, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, rowid ASC"
	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var kind sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &kind, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		if kind.Valid {
			msg.Kind = kind.String
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Lead methods
func (s *SQLiteStore) CreateLead(lead *Lead) error {
	lead.ID = uuid.NewString()
	lead.CreatedAt = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO leads (id, session_id, full_name, email, consultation_for, primary_health_concern, tried_other_treatments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare lead insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(lead.ID, lead.SessionID, lead.FullName, lead.Email, lead.ConsultationFor, lead.PrimaryHealthConcern, lead.TriedOtherTreatments, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute lead insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLeadsBySession(sessionID string) ([]Lead, error) {
	rows, err := s.db.Query("SELECT id, session_id, full_name, email, consultation_for, primary_health_concern, tried_other_treatments, created_at FROM leads WHERE session_id = ? ORDER BY created_at ASC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(&lead.ID, &lead.SessionID, &lead.FullName, &lead.Email, &lead.ConsultationFor, &lead.PrimaryHealthConcern, &lead.TriedOtherTreatments, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
