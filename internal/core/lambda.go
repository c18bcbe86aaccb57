package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaFunc is the handler signature for API Gateway HTTP API (payload v2).
type LambdaFunc func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// LambdaHandler adapts an http.Handler to API Gateway v2 events so the same
// chi router serves both the local listener and Lambda.
func LambdaHandler(h http.Handler) LambdaFunc {
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		httpReq, err := requestFromEvent(ctx, req)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{}, err
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httpReq)
		return responseFromRecorder(rec), nil
	}
}

func requestFromEvent(ctx context.Context, req events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	path := req.RawPath
	if path == "" {
		path = req.RequestContext.HTTP.Path
	}
	target := path
	if req.RawQueryString != "" {
		target += "?" + req.RawQueryString
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		body = decoded
	}

	method := req.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range req.Headers {
		for _, part := range strings.Split(v, ",") {
			httpReq.Header.Add(k, strings.TrimSpace(part))
		}
	}
	if len(req.Cookies) > 0 {
		httpReq.Header.Set("Cookie", strings.Join(req.Cookies, "; "))
	}
	if httpReq.Header.Get("X-Request-Id") == "" && req.RequestContext.RequestID != "" {
		httpReq.Header.Set("X-Request-Id", req.RequestContext.RequestID)
	}
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	} else if req.RequestContext.DomainName != "" {
		httpReq.Host = req.RequestContext.DomainName
	}
	httpReq.RemoteAddr = req.RequestContext.HTTP.SourceIP
	httpReq.ContentLength = int64(len(body))

	return httpReq, nil
}

func responseFromRecorder(rec *httptest.ResponseRecorder) events.APIGatewayV2HTTPResponse {
	res := rec.Result()
	defer res.Body.Close()

	headers := make(map[string]string, len(res.Header))
	var cookies []string
	for k, v := range res.Header {
		if strings.EqualFold(k, "Set-Cookie") {
			cookies = append(cookies, v...)
			continue
		}
		headers[k] = strings.Join(v, ",")
	}

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: res.StatusCode,
		Headers:    headers,
		Cookies:    cookies,
	}

	raw := rec.Body.Bytes()
	if isTextual(res.Header) {
		out.Body = string(raw)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(raw)
		out.IsBase64Encoded = true
	}
	return out
}

// isTextual reports whether the body can travel as a plain string. Encoded
// (gzip) bodies never can.
func isTextual(h http.Header) bool {
	if h.Get("Content-Encoding") != "" {
		return false
	}
	ct := h.Get("Content-Type")
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "javascript")
}
