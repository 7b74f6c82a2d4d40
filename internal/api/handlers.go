package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"fgm.clinic/chat-assistant/internal/core"
	"fgm.clinic/chat-assistant/internal/store"
	"github.com/go-chi/chi/v5"
)

type APIHandler struct {
	chatService *core.ChatService
	leadService *core.LeadService
}

func NewAPIHandler(cs *core.ChatService, ls *core.LeadService) *APIHandler {
	return &APIHandler{chatService: cs, leadService: ls}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type ChatRequest struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Messages  []core.ChatTurn `json:"messages"`
}

type chatMessageResponse struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
	Content   string `json:"content,omitempty"`
}

// ChatHandler processes one chat turn. Streamed replies go out as
// server-sent events; a form trigger comes back as a single JSON object
// instead, and transports without flush support get the buffered reply
// in one JSON object.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message content cannot be empty"})
		return
	}

	flusher, canStream := w.(http.Flusher)
	streamStarted := false

	emit := func(event core.TurnEvent) error {
		if !canStream {
			return nil // buffered transport, reply goes out as one JSON object
		}
		if !streamStarted {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			streamStarted = true
		}
		frame, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result, err := h.chatService.HandleTurn(r.Context(), req.SessionID, req.Message, req.Messages, emit)
	if err != nil {
		log.Printf("Chat turn failed for session %q: %v", req.SessionID, err)
		if streamStarted {
			// Headers are gone; surface the failure as a terminal frame.
			frame, _ := json.Marshal(map[string]string{"error": "Failed to process chat message"})
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
			return
		}
		var upstream *core.UpstreamError
		if errors.As(err, &upstream) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to process chat message"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to process chat message"})
		return
	}

	switch {
	case result.Kind == core.TurnKindForm:
		writeJSON(w, http.StatusOK, chatMessageResponse{
			Type:      "form",
			SessionID: result.SessionID,
			Message:   result.Message,
		})
	case streamStarted:
		// Frames, including the done signal, were already relayed.
	default:
		writeJSON(w, http.StatusOK, chatMessageResponse{
			Type:      "message",
			SessionID: result.SessionID,
			Content:   result.Message,
		})
	}
}

type LeadRequest struct {
	SessionID string `json:"session_id"`
	core.LeadForm
}

func (h *APIHandler) SubmitLeadHandler(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	lead, confirmation, err := h.leadService.SubmitLead(req.SessionID, req.LeadForm)
	if err != nil {
		var validation *core.ValidationError
		switch {
		case errors.Is(err, core.ErrMissingSession):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session ID is required"})
		case errors.As(err, &validation):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Invalid form data",
				"details": validation.Fields,
			})
		default:
			log.Printf("Lead submission failed for session %q: %v", req.SessionID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to submit lead information"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"lead_id": lead.ID,
		"message": confirmation,
	})
}

type SessionHistoryResponse struct {
	SessionID     string          `json:"session_id"`
	FormSubmitted bool            `json:"form_submitted"`
	Messages      []store.Message `json:"messages"`
}

func (h *APIHandler) SessionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, messages, err := h.chatService.SessionHistory(sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
			return
		}
		log.Printf("History lookup failed for session %q: %v", sessionID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load session history"})
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, SessionHistoryResponse{
		SessionID:     session.ID,
		FormSubmitted: session.FormSubmitted,
		Messages:      messages,
	})
}
