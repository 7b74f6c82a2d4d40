package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultChatModel    = "gpt-5"
	maxCompletionTokens = 2048

	// Retries apply only to establishing the stream. A stream that has
	// already produced output is never reissued; that would duplicate
	// fragments.
	dispatchAttempts    = 3
	dispatchBackoffBase = 500 * time.Millisecond
)

// ChatTurn is one (role, content) pair of conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces a streamed assistant reply. onDelta is called once
// per text fragment in arrival order; a nil return means the whole
// stream completed. Failing before the first fragment and completing
// with no fragments are distinct outcomes (error vs. nil).
type Generator interface {
	StreamChat(ctx context.Context, instruction string, history []ChatTurn, onDelta func(fragment string) error) error
}

// LLMService implements Generator over the OpenAI chat completions API.
type LLMService struct {
	client *openai.Client
	model  string
}

func NewLLMService(apiKey, model string) *LLMService {
	if model == "" {
		model = defaultChatModel
	}
	return &LLMService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (s *LLMService) StreamChat(ctx context.Context, instruction string, history []ChatTurn, onDelta func(string) error) error {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: instruction,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: maxCompletionTokens,
		Stream:    true,
	}

	stream, err := s.openStream(ctx, req)
	if err != nil {
		return &UpstreamError{Op: "chat completion dispatch", Err: err}
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &UpstreamError{Op: "chat completion stream", Err: err}
		}

		if len(response.Choices) == 0 {
			continue
		}
		content := response.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		if err := onDelta(content); err != nil {
			return err
		}
	}
}

// openStream dispatches the completion request with bounded exponential
// backoff.
func (s *LLMService) openStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error) {
	var lastErr error
	backoff := dispatchBackoffBase

	for attempt := 1; attempt <= dispatchAttempts; attempt++ {
		stream, err := s.client.CreateChatCompletionStream(ctx, req)
		if err == nil {
			return stream, nil
		}
		lastErr = err

		if attempt < dispatchAttempts {
			log.Printf("Chat completion dispatch failed (attempt %d/%d), retrying in %s: %v", attempt, dispatchAttempts, backoff, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("failed to create stream after %d attempts: %w", dispatchAttempts, lastErr)
}
