package http

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Response is the transport's answer. StatusCode 0 marks a transport
// failure, with the reason in Body.
type Response struct {
	StatusCode int         `json:"status_code"`
	Headers    [][2]string `json:"headers"`
	Body       string      `json:"body"`
	DurationMs int64       `json:"duration_ms"`
}

// Failure builds the status-0 response for err.
func Failure(err error) *Response {
	return &Response{
		StatusCode: 0,
		Headers:    [][2]string{},
		Body:       "Error: " + err.Error(),
	}
}

// DecodeResponse parses a response document.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid response document: %w", err)
	}
	return &resp, nil
}

func (r *Response) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Header returns the first value for key (case-insensitive).
func (r *Response) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h[0], key) {
			return h[1]
		}
	}
	return ""
}

// HeaderMap flattens the headers, later values winning.
func (r *Response) HeaderMap() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		m[h[0]] = h[1]
	}
	return m
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// IsJSON reports whether the content type says JSON or, lacking one, the
// body parses as JSON.
func (r *Response) IsJSON() bool {
	if ct := r.ContentType(); ct != "" {
		return strings.Contains(ct, "json")
	}
	return json.Valid([]byte(r.Body))
}

// IsTransportFailure reports the status-0 sentinel.
func (r *Response) IsTransportFailure() bool {
	return r.StatusCode == 0
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsError reports 4xx and 5xx responses.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) StatusText() string {
	return StatusText(r.StatusCode)
}

var statusTexts = map[int]string{
	0:   "Error",
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}

// StatusText returns the display text for code, "Unknown" for codes outside
// the table.
func StatusText(code int) string {
	if text, ok := statusTexts[code]; ok {
		return text
	}
	return "Unknown"
}
