package handler

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Router exposes the same routes over net/http for running outside Lambda.
// Each request is converted to a proxy event and served like Handle does.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.adapt(h.health)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/template", h.adapt(h.template)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/chat", h.adapt(h.chatRelay)).Methods(http.MethodPost, http.MethodOptions)
	r.NotFoundHandler = h.adapt(h.notFound)
	r.MethodNotAllowedHandler = h.adapt(h.methodNotAllowed)
	return r
}

func (h *Handler) adapt(next route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := toProxyRequest(r)
		if err != nil {
			writeProxyResponse(w, jsonResponse(http.StatusBadRequest, errorResponse{Error: "Invalid request", Message: err.Error()}))
			return
		}
		writeProxyResponse(w, h.serve(r.Context(), event, next))
	}
}

func toProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return events.APIGatewayProxyRequest{}, fmt.Errorf("read request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return events.APIGatewayProxyRequest{}, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		MultiValueHeaders:     r.Header,
		QueryStringParameters: query,
		Body:                  string(body),
	}, nil
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Body); err == nil {
			body = decoded
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}
