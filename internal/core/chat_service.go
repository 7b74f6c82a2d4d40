package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fgm.clinic/chat-assistant/internal/store"
)

// Turn result kinds.
const (
	TurnKindForm    = "form"
	TurnKindMessage = "message"
)

// TurnEvent is one incremental frame relayed to the caller while the
// assistant reply streams in.
type TurnEvent struct {
	Content   string `json:"content,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Done      bool   `json:"done,omitempty"`
}

// TurnResult is the terminal outcome of a chat turn: either a form
// trigger or the fully accumulated assistant reply.
type TurnResult struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatService orchestrates one chat turn across the store, the context
// provider and the response generator.
type ChatService struct {
	store    store.Store
	contexts ContextProvider
	llm      Generator
}

func NewChatService(db store.Store, contexts ContextProvider, llm Generator) *ChatService {
	return &ChatService{
		store:    db,
		contexts: contexts,
		llm:      llm,
	}
}

// HandleTurn processes one user utterance. The caller's transcript is
// used only to rebuild model context; the store remains authoritative.
// Streamed fragments are relayed through emit in arrival order; when the
// turn resolves to a form trigger, emit is never called and the result
// carries the form prompt instead. On generator failure no assistant
// message is persisted, but the turn-count increment stays committed.
func (s *ChatService) HandleTurn(ctx context.Context, sessionID, userText string, history []ChatTurn, emit func(TurnEvent) error) (*TurnResult, error) {
	session, err := s.resolveSession(sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := store.Message{
		SessionID: session.ID,
		Role:      store.RoleUser,
		Content:   userText,
		Kind:      store.KindMessage,
	}
	if err := s.store.CreateMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	session, err = s.store.IncrementSessionTurn(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment turn count: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if !session.FormSubmitted && ShouldTriggerForm(session.TurnCount, userText) {
		log.Printf("Form trigger fired for session %s at turn %d", session.ID, session.TurnCount)
		if err := s.store.SetSessionMetadata(session.ID, metadataFormTriggered, true); err != nil {
			// The trigger still fires; only the replay marker is lost.
			log.Printf("Failed to record form trigger for session %s: %v", session.ID, err)
		}
		return &TurnResult{
			Kind:      TurnKindForm,
			SessionID: session.ID,
			Message:   formPromptMessage,
		}, nil
	}

	instruction := s.buildInstruction(ctx, userText)

	turns := make([]ChatTurn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, ChatTurn{Role: store.RoleUser, Content: userText})

	var reply strings.Builder
	err = s.llm.StreamChat(ctx, instruction, turns, func(fragment string) error {
		reply.WriteString(fragment)
		return emit(TurnEvent{Content: fragment, SessionID: session.ID})
	})
	if err != nil {
		return nil, err
	}

	assistantMsg := store.Message{
		SessionID: session.ID,
		Role:      store.RoleAssistant,
		Content:   reply.String(),
		Kind:      store.KindMessage,
	}
	if err := s.store.CreateMessage(&assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if err := emit(TurnEvent{Done: true, SessionID: session.ID}); err != nil {
		return nil, err
	}

	return &TurnResult{
		Kind:      TurnKindMessage,
		SessionID: session.ID,
		Message:   reply.String(),
	}, nil
}

// resolveSession loads the referenced session, creating a fresh one when
// the identifier is absent or stale.
func (s *ChatService) resolveSession(sessionID string) (*store.Session, error) {
	if sessionID != "" {
		session, err := s.store.GetSession(sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if session != nil {
			return session, nil
		}
		log.Printf("Session %s not found, starting a new one", sessionID)
	}

	session, err := s.store.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Printf("Created new session %s", session.ID)
	return session, nil
}

func (s *ChatService) buildInstruction(ctx context.Context, userText string) string {
	snippets := s.contexts.FetchContext(ctx, userText)

	parts := make([]string, 0, len(snippets))
	for _, sn := range snippets {
		if sn.Content != "" {
			parts = append(parts, sn.Content)
		}
	}
	contextText := strings.Join(parts, "\n\n")
	if contextText == "" {
		contextText = noContextPlaceholder
	}

	return systemPrompt + "\n\n## Retrieved Knowledge Base Context:\n" + contextText
}

// SessionHistory returns the stored transcript for a session in
// conversational order, so a caller can resume where it left off.
func (s *ChatService) SessionHistory(sessionID string) (*store.Session, []store.Message, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	messages, err := s.store.GetMessagesBySession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return session, messages, nil
}
