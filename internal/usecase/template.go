package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"codecraft-agent/internal/domain"
	"codecraft-agent/internal/scaffold"
)

const (
	// defaultMaxPrompt is counted in characters, not bytes.
	defaultMaxPrompt = 4000

	classifyMaxTokens   = 200
	classifyTemperature = 0.5
	classifyMaxRetries  = 2
)

type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// TemplateService classifies a project description and selects the
// matching scaffold prompt bundle.
type TemplateService struct {
	llm          Completer
	models       ModelSource
	maxPromptLen int
}

type TemplateInput struct {
	Prompt string
}

type TemplateOutput struct {
	Kind   domain.ProjectKind
	Label  string
	Bundle domain.PromptBundle
}

func NewTemplateService(llm Completer, models ModelSource, maxPromptLen int) (*TemplateService, error) {
	if llm == nil {
		return nil, errors.New("usecase: completer must not be nil")
	}
	if models == nil {
		return nil, errors.New("usecase: model source must not be nil")
	}
	if maxPromptLen <= 0 {
		maxPromptLen = defaultMaxPrompt
	}
	return &TemplateService{llm: llm, models: models, maxPromptLen: maxPromptLen}, nil
}

// Template never falls back to a bundle: an unrecognized label is
// ErrorUnknownProject, a failed completion call is ErrorUpstream or
// ErrorRateLimited.
func (s *TemplateService) Template(ctx context.Context, in TemplateInput) (TemplateOutput, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return TemplateOutput{}, newError(ErrorInvalidInput, "empty_prompt", nil)
	}
	if utf8.RuneCountInString(in.Prompt) > s.maxPromptLen {
		return TemplateOutput{}, newError(ErrorInvalidInput, "prompt_too_long", nil)
	}
	model, err := s.models.Model(ctx)
	if err != nil {
		return TemplateOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}
	msgs, err := classificationTemplate.Format(map[string]string{"topic": in.Prompt})
	if err != nil {
		return TemplateOutput{}, newError(ErrorInternal, "template_format_error", err)
	}

	raw, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
		MaxRetries:  classifyMaxRetries,
	})
	if err != nil {
		return TemplateOutput{}, completionError(err)
	}

	kind, label := domain.ParseProjectKind(raw)
	bundle, ok := scaffold.Bundle(kind)
	if !ok {
		return TemplateOutput{Kind: kind, Label: label}, newError(ErrorUnknownProject, "unrecognized_label", nil)
	}
	return TemplateOutput{Kind: kind, Label: label, Bundle: bundle}, nil
}

func completionError(err error) *Error {
	if status, ok := upstreamStatusCode(err); ok && status == 429 {
		return newError(ErrorRateLimited, "llm_rate_limited", err)
	}
	return newError(ErrorUpstream, "llm_error", err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
