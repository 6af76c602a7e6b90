package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"

	"codecraft-agent/internal/domain"
	"codecraft-agent/internal/integrations/paramstore"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	defaultTimeout = 2 * time.Minute
	tokenParamKey  = "groq-token"
)

// tokenPayload is the JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// chatAPI is the slice of *openai.Client used here.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("llm: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is the completion capability: an OpenAI-compatible chat completions
// client with a per-call retry budget. It holds no per-request state.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      paramstore.Getter
	paramPrefix string

	apiMu sync.RWMutex
	api   chatAPI
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client whose API token is read from SSM under
// paramPrefix on first use. Once a token has loaded it is reused for the
// lifetime of the process.
func NewClient(ps paramstore.Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("llm: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("llm: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// resolveAPI builds the go-openai client on first success. A failed token
// fetch is not cached, so the next call tries SSM again.
func (c *Client) resolveAPI(ctx context.Context) (chatAPI, error) {
	c.apiMu.RLock()
	api := c.api
	c.apiMu.RUnlock()
	if api != nil {
		return api, nil
	}

	c.apiMu.Lock()
	defer c.apiMu.Unlock()
	if c.api != nil {
		return c.api, nil
	}

	var tp tokenPayload
	if err := paramstore.GetJSON(ctx, c.getter, paramstore.Join(c.paramPrefix, tokenParamKey), &tp); err != nil {
		return nil, fmt.Errorf("llm: fetch token from paramstore: %w", err)
	}
	if tp.Token == "" {
		return nil, errors.New("llm: API token is empty")
	}
	cfg := openai.DefaultConfig(tp.Token)
	cfg.BaseURL = apiBaseURL(c.baseURL)
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c.api, nil
}

// completionCall is the unit of work carried through the retry pipeline.
type completionCall struct {
	req      openai.ChatCompletionRequest
	attempts int
	resp     openai.ChatCompletionResponse
	lastErr  error
	fatal    error
}

// Complete sends req.Messages to the model and returns the first choice's
// text. Transient failures (network errors, 408, 429, 5xx, empty choices)
// are retried up to req.MaxRetries times; other failures return at once.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("llm: model must not be empty")
	}
	if len(req.Messages) == 0 {
		return "", errors.New("llm: at least one message is required")
	}
	if req.MaxRetries < 0 {
		req.MaxRetries = 0
	}

	api, err := c.resolveAPI(ctx)
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	call := &completionCall{req: openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}}

	url := apiBaseURL(c.baseURL) + "/chat/completions"
	var terminal pipz.Chainable[*completionCall] = pipz.Apply(pipz.NewIdentity("chat-completion", ""), func(ctx context.Context, cc *completionCall) (*completionCall, error) {
		cc.attempts++
		resp, err := api.CreateChatCompletion(ctx, cc.req)
		if err != nil {
			err = translateError(err, url)
			if !retryable(err) {
				cc.fatal = err
				return cc, nil
			}
			cc.lastErr = err
			return cc, err
		}
		if len(resp.Choices) == 0 {
			cc.lastErr = errors.New("llm: no choices in response")
			return cc, cc.lastErr
		}
		cc.resp = resp
		cc.lastErr = nil
		return cc, nil
	})
	pipeline := pipz.NewRetry(pipz.NewIdentity("retry", ""), terminal, req.MaxRetries+1)

	start := time.Now()
	capitan.Emit(ctx, CallStarted,
		ModelKey.Field(req.Model),
		MessagesKey.Field(len(messages)),
		MaxTokensKey.Field(req.MaxTokens),
	)

	_, err = pipeline.Process(ctx, call)
	switch {
	case call.fatal != nil:
		err = call.fatal
	case err != nil && ctx.Err() != nil:
		err = ctx.Err()
	case err != nil && call.lastErr != nil:
		err = call.lastErr
	}
	if err != nil {
		fields := []capitan.Field{
			ModelKey.Field(req.Model),
			AttemptsKey.Field(call.attempts),
			DurationMsKey.Field(int(time.Since(start).Milliseconds())),
			ErrorKey.Field(err.Error()),
		}
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, StatusCodeKey.Field(statusErr.StatusCode))
		}
		capitan.Emit(ctx, CallFailed, fields...)
		return "", fmt.Errorf("llm: request failed: %w", err)
	}

	choice := call.resp.Choices[0]
	capitan.Emit(ctx, CallCompleted,
		ModelKey.Field(req.Model),
		AttemptsKey.Field(call.attempts),
		DurationMsKey.Field(int(time.Since(start).Milliseconds())),
		FinishReasonKey.Field(string(choice.FinishReason)),
		TotalTokensKey.Field(call.resp.Usage.TotalTokens),
	)
	return choice.Message.Content, nil
}

func translateError(err error, url string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, URL: url, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, URL: url, Body: reqErr.Error()}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return true
	}
	switch code := statusErr.StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
