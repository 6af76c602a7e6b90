package usecase

import (
	"context"
	"errors"

	"codecraft-agent/internal/domain"
	"codecraft-agent/internal/prompttemplate"
)

const (
	chatMaxTokens   = 8000
	chatTemperature = 0.5
	chatMaxRetries  = 1
)

// ChatService relays a full conversation to the model behind a fixed system
// instruction. It keeps no state between calls.
type ChatService struct {
	llm          Completer
	models       ModelSource
	systemPrompt string
}

// ChatInput carries the caller's turns. A nil Messages means the field was
// absent from the request.
type ChatInput struct {
	Messages []domain.ChatTurn
}

type ChatOutput struct {
	Response string
}

func NewChatService(llm Completer, models ModelSource, systemPrompt string) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: completer must not be nil")
	}
	if models == nil {
		return nil, errors.New("usecase: model source must not be nil")
	}
	if systemPrompt == "" {
		return nil, errors.New("usecase: system prompt must not be empty")
	}
	return &ChatService{llm: llm, models: models, systemPrompt: systemPrompt}, nil
}

// Relay returns the model's reply verbatim.
func (s *ChatService) Relay(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if in.Messages == nil {
		return ChatOutput{}, newError(ErrorInvalidInput, "missing_messages", nil)
	}
	if len(in.Messages) == 0 {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_messages", nil)
	}
	model, err := s.models.Model(ctx)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	tmpl, err := prompttemplate.FromMessages(chatTemplateMessages(s.systemPrompt, in.Messages)...)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "template_build_error", err)
	}
	msgs, err := tmpl.Format(nil)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "template_format_error", err)
	}

	reply, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		MaxRetries:  chatMaxRetries,
	})
	if err != nil {
		return ChatOutput{}, completionError(err)
	}
	return ChatOutput{Response: reply}, nil
}
