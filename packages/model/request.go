package model

import "strings"

// Header is a request header row. Disabled rows are kept by the editor but
// never sent.
type Header struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// DraftRequest is the in-flight request owned by an editing surface.
type DraftRequest struct {
	Method     string       `json:"method"`
	URL        string       `json:"url"`
	Body       string       `json:"body,omitempty"`
	Headers    []Header     `json:"headers,omitempty"`
	Auth       *RequestAuth `json:"auth,omitempty"`
	TestScript string       `json:"testScript,omitempty"`
}

// ResolvedRequest is the wire-ready request produced by the composer.
// It is built once and not mutated afterwards.
type ResolvedRequest struct {
	Method string       `json:"method"`
	URL    string       `json:"url"`
	Header []Header     `json:"header"`
	Body   string       `json:"body,omitempty"`
	Auth   *RequestAuth `json:"auth,omitempty"`
}

// HeaderValue returns the value of the first header named key (case-insensitive).
func (r *ResolvedRequest) HeaderValue(key string) (string, bool) {
	return FindHeader(r.Header, key)
}

// FindHeader returns the value of the first enabled header named key
// (case-insensitive).
func FindHeader(headers []Header, key string) (string, bool) {
	for _, h := range headers {
		if !h.Disabled && strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}
