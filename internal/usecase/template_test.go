package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"codecraft-agent/internal/domain"
	"codecraft-agent/internal/scaffold"
)

func newTemplateService(t *testing.T, llm Completer) *TemplateService {
	t.Helper()
	cfg, err := NewRemoteConfig(defaultParams(), "/prefix")
	require.NoError(t, err)
	svc, err := NewTemplateService(llm, cfg, 100)
	require.NoError(t, err)
	return svc
}

func TestNewTemplateService_ValidatesDependencies(t *testing.T) {
	_, err := NewTemplateService(nil, StaticModel("m"), 0)
	require.Error(t, err)

	_, err = NewTemplateService(&capturingLLM{}, nil, 0)
	require.Error(t, err)

	svc, err := NewTemplateService(&capturingLLM{}, StaticModel("m"), 0)
	require.NoError(t, err)
	require.Equal(t, defaultMaxPrompt, svc.maxPromptLen)
}

func TestTemplate_ReactLabels(t *testing.T) {
	for _, answer := range []string{"react", "React", "  REACT \n"} {
		llm := &capturingLLM{answer: answer}
		svc := newTemplateService(t, llm)

		out, err := svc.Template(context.Background(), TemplateInput{Prompt: "a single-page app with components and hooks"})
		require.NoError(t, err, "answer=%q", answer)
		require.Equal(t, domain.ProjectReact, out.Kind)
		require.Equal(t, "react", out.Label)
		require.Equal(t, []string{scaffold.ReactBasePrompt()}, out.Bundle.UIPrompts)
		require.Equal(t, scaffold.BasePrompt(), out.Bundle.Prompts[0])
	}
}

func TestTemplate_NodeLabels(t *testing.T) {
	for _, answer := range []string{"node", "Node", "\tnode  "} {
		llm := &capturingLLM{answer: answer}
		svc := newTemplateService(t, llm)

		out, err := svc.Template(context.Background(), TemplateInput{Prompt: "a todo app with a REST API and a database"})
		require.NoError(t, err, "answer=%q", answer)
		require.Equal(t, domain.ProjectNode, out.Kind)
		require.Equal(t, []string{scaffold.NodeBasePrompt()}, out.Bundle.UIPrompts)
		require.Len(t, out.Bundle.Prompts, 1)
	}
}

func TestTemplate_UnrecognizedLabelsAreRejected(t *testing.T) {
	for _, answer := range []string{"React.", "maybe node", "", "python", "node\nreact"} {
		svc := newTemplateService(t, &capturingLLM{answer: answer})

		out, err := svc.Template(context.Background(), TemplateInput{Prompt: "something"})
		expectError(t, err, ErrorUnknownProject, "unrecognized_label")
		require.Equal(t, domain.ProjectUnknown, out.Kind)
		require.Empty(t, out.Bundle.Prompts)
		require.Empty(t, out.Bundle.UIPrompts)
	}
}

func TestTemplate_SendsClassificationRequest(t *testing.T) {
	llm := &capturingLLM{answer: "node"}
	svc := newTemplateService(t, llm)

	prompt := "an API with {braces} and } strays {topic}"
	_, err := svc.Template(context.Background(), TemplateInput{Prompt: prompt})
	require.NoError(t, err)
	require.Equal(t, 1, llm.callCount)

	req := llm.captured
	require.Equal(t, "llama-test", req.Model)
	require.Equal(t, classifyMaxTokens, req.MaxTokens)
	require.Equal(t, classifyMaxRetries, req.MaxRetries)
	require.InDelta(t, 0.5, req.Temperature, 0.0001)
	require.Equal(t, []domain.ChatMessage{
		{Role: "system", Content: classificationInstruction},
		{Role: "user", Content: prompt},
	}, req.Messages)
}

func TestTemplate_ValidationErrors(t *testing.T) {
	llm := &capturingLLM{answer: "node"}
	svc := newTemplateService(t, llm)

	_, err := svc.Template(context.Background(), TemplateInput{Prompt: ""})
	expectError(t, err, ErrorInvalidInput, "empty_prompt")

	_, err = svc.Template(context.Background(), TemplateInput{Prompt: " \n\t "})
	expectError(t, err, ErrorInvalidInput, "empty_prompt")

	_, err = svc.Template(context.Background(), TemplateInput{Prompt: strings.Repeat("a", 101)})
	expectError(t, err, ErrorInvalidInput, "prompt_too_long")

	require.Zero(t, llm.callCount)
}

func TestTemplate_PromptLimitCountsCharacters(t *testing.T) {
	llm := &capturingLLM{answer: "react"}
	svc := newTemplateService(t, llm)

	prompt := strings.Repeat("é", 100)
	out, err := svc.Template(context.Background(), TemplateInput{Prompt: prompt})
	require.NoError(t, err)
	require.Equal(t, domain.ProjectReact, out.Kind)

	_, err = svc.Template(context.Background(), TemplateInput{Prompt: prompt + "é"})
	expectError(t, err, ErrorInvalidInput, "prompt_too_long")
	require.Equal(t, 1, llm.callCount)
}

func TestTemplate_UnknownCarriesNormalizedLabel(t *testing.T) {
	svc := newTemplateService(t, &capturingLLM{answer: "  Vue\n"})
	out, err := svc.Template(context.Background(), TemplateInput{Prompt: "a vue app"})
	expectError(t, err, ErrorUnknownProject, "unrecognized_label")
	require.Equal(t, "vue", out.Label)
}

func TestTemplate_CompletionFailuresAreNotUnknown(t *testing.T) {
	svc := newTemplateService(t, &capturingLLM{err: errors.New("connection reset")})
	_, err := svc.Template(context.Background(), TemplateInput{Prompt: "a todo app"})
	ue := expectError(t, err, ErrorUpstream, "llm_error")
	require.Equal(t, "connection reset", ue.Detail())

	svc = newTemplateService(t, &capturingLLM{err: statusErr(http.StatusTooManyRequests)})
	_, err = svc.Template(context.Background(), TemplateInput{Prompt: "a todo app"})
	expectError(t, err, ErrorRateLimited, "llm_rate_limited")

	svc = newTemplateService(t, &capturingLLM{err: statusErr(http.StatusInternalServerError)})
	_, err = svc.Template(context.Background(), TemplateInput{Prompt: "a todo app"})
	expectError(t, err, ErrorUpstream, "llm_error")
}

func TestTemplate_ModelLoadError(t *testing.T) {
	cfg, err := NewRemoteConfig(&mockParams{err: errors.New("ssm unavailable")}, "/prefix")
	require.NoError(t, err)
	llm := &capturingLLM{answer: "node"}
	svc, err := NewTemplateService(llm, cfg, 0)
	require.NoError(t, err)

	_, err = svc.Template(context.Background(), TemplateInput{Prompt: "a todo app"})
	expectError(t, err, ErrorInternal, "ssm_load_error")
	require.Zero(t, llm.callCount)
}
