package handler

import (
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const corsMethods = "GET,POST"

// corsPolicy admits requests without an Origin header and requests whose
// origin is on the allow list. Credentials are permitted.
type corsPolicy struct {
	origins map[string]struct{}
}

func newCORSPolicy(allowed []string) *corsPolicy {
	p := &corsPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			p.origins[o] = struct{}{}
		}
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func (p *corsPolicy) decorate(headers map[string]string, origin string) {
	if origin == "" || headers == nil {
		return
	}
	headers["Access-Control-Allow-Origin"] = origin
	headers["Access-Control-Allow-Credentials"] = "true"
	headers["Vary"] = "Origin"
}

func (p *corsPolicy) preflight(origin, requestHeaders string) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Access-Control-Allow-Methods": corsMethods,
	}
	if requestHeaders != "" {
		headers["Access-Control-Allow-Headers"] = requestHeaders
	}
	p.decorate(headers, origin)
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: headers}
}
