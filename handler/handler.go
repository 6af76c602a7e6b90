package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"codecraft-agent/internal/domain"
	"codecraft-agent/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	healthBody        = "Hello World!"
	unknownProjectMsg = "You cant access this"
)

type TemplateUseCase interface {
	Template(ctx context.Context, in usecase.TemplateInput) (usecase.TemplateOutput, error)
}

type ChatUseCase interface {
	Relay(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type templateRequest struct {
	Prompt string `json:"prompt"`
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatTurn `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// route serves one endpoint. It never fails; errors become responses.
type route func(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse

// Handler serves the HTTP surface as API Gateway proxy events.
type Handler struct {
	templates TemplateUseCase
	chat      ChatUseCase
	cors      *corsPolicy
}

func NewHandler(templates TemplateUseCase, chat ChatUseCase, allowedOrigins []string) (*Handler, error) {
	if templates == nil {
		return nil, errors.New("handler: template use case must not be nil")
	}
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{
		templates: templates,
		chat:      chat,
		cors:      newCORSPolicy(allowedOrigins),
	}, nil
}

// Handle is the Lambda entry point.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.serve(ctx, req, h.dispatch), nil
}

func (h *Handler) dispatch(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var (
		next   route
		method string
	)
	switch normalizePath(req.Path) {
	case "/":
		next, method = h.health, http.MethodGet
	case "/template":
		next, method = h.template, http.MethodPost
	case "/chat":
		next, method = h.chatRelay, http.MethodPost
	default:
		return h.notFound(ctx, req)
	}
	if req.HTTPMethod != method {
		return h.methodNotAllowed(ctx, req)
	}
	return next(ctx, req)
}

// serve applies the cross-cutting concerns shared by every route: correlation
// id, origin filtering, preflight and response logging.
func (h *Handler) serve(ctx context.Context, req events.APIGatewayProxyRequest, next route) events.APIGatewayProxyResponse {
	corrID := headerValue(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	logger := slog.With("correlation_id", corrID, "method", req.HTTPMethod, "path", req.Path)
	ctx = withLogger(ctx, logger)

	origin := headerValue(req.Headers, "Origin")
	var resp events.APIGatewayProxyResponse
	switch {
	case !h.cors.allows(origin):
		logger.Warn("origin rejected", "origin", origin)
		resp = jsonResponse(http.StatusForbidden, errorResponse{Error: "Forbidden", Message: "Not allowed by CORS"})
	case req.HTTPMethod == http.MethodOptions:
		resp = h.cors.preflight(origin, headerValue(req.Headers, "Access-Control-Request-Headers"))
	default:
		resp = next(ctx, req)
		h.cors.decorate(resp.Headers, origin)
	}
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers[correlationHeader] = corrID
	logger.Info("request served", "status", resp.StatusCode)
	return resp
}

func (h *Handler) health(_ context.Context, _ events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       healthBody,
	}
}

func (h *Handler) template(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	logger := loggerFrom(ctx)

	var body templateRequest
	if err := decodeBody(req, &body); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "Invalid request", Message: err.Error()})
	}
	logger.Info("template requested", "prompt", body.Prompt)

	out, err := h.templates.Template(ctx, usecase.TemplateInput{Prompt: body.Prompt})
	if err != nil {
		var ue *usecase.Error
		if errors.As(err, &ue) && ue.Code == usecase.ErrorUnknownProject {
			logger.Info("project kind not recognized", "label", out.Label)
			return jsonResponse(http.StatusForbidden, errorResponse{Message: unknownProjectMsg})
		}
		status, resp := templateError(err)
		logger.Error("template failed", "status", status, "err", err)
		return jsonResponse(status, resp)
	}

	logger.Info("template classified", "label", out.Label, "kind", out.Kind.String())
	return jsonResponse(http.StatusOK, domain.PromptBundle{
		Prompts:   out.Bundle.Prompts,
		UIPrompts: out.Bundle.UIPrompts,
	})
}

func (h *Handler) chatRelay(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	logger := loggerFrom(ctx)

	var body chatRequest
	if err := decodeBody(req, &body); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "Invalid request", Message: err.Error()})
	}

	var in usecase.ChatInput
	if body.Messages != nil {
		in.Messages = make([]domain.ChatTurn, 0, len(body.Messages))
		for _, m := range body.Messages {
			in.Messages = append(in.Messages, domain.ChatTurn{Role: m.Role, Content: m.Content})
		}
	}
	logger.Info("chat relay requested", "turns", len(in.Messages))

	out, err := h.chat.Relay(ctx, in)
	if err != nil {
		var ue *usecase.Error
		if errors.As(err, &ue) && ue.Code == usecase.ErrorInvalidInput {
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: "Invalid request", Message: ue.Detail()})
		}
		logger.Error("chat relay failed", "err", err)
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: errorDetail(err)})
	}
	return jsonResponse(http.StatusOK, chatResponse{Response: out.Response})
}

func (h *Handler) notFound(_ context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusNotFound, errorResponse{
		Error:   "Not found",
		Message: fmt.Sprintf("no route for %s %s", req.HTTPMethod, req.Path),
	})
}

func (h *Handler) methodNotAllowed(_ context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusMethodNotAllowed, errorResponse{
		Error:   "Method not allowed",
		Message: fmt.Sprintf("%s is not supported on %s", req.HTTPMethod, req.Path),
	})
}

func templateError(err error) (int, errorResponse) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: err.Error()}
	}
	switch ue.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, errorResponse{Error: "Invalid request", Message: ue.Detail()}
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, errorResponse{Error: "Rate limited", Message: ue.Detail()}
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, errorResponse{Error: "Upstream error", Message: ue.Detail()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: ue.Detail()}
	}
}

func errorDetail(err error) string {
	var ue *usecase.Error
	if errors.As(err, &ue) {
		return ue.Detail()
	}
	return err.Error()
}

func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return fmt.Errorf("decode base64 body: %w", err)
		}
		raw = decoded
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode JSON body: %w", err)
	}
	return nil
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error","message":"encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
