package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// Body modes.
const (
	ModeNone       = "none"
	ModeRaw        = "raw"
	ModeURLEncoded = "urlencoded"
	ModeFormData   = "formdata"
	ModeGraphQL    = "graphql"
)

// Request is the wire document accepted by the transport.
type Request struct {
	Method string             `json:"method"`
	URL    URL                `json:"url"`
	Header []model.Header     `json:"header,omitempty"`
	Body   *Body              `json:"body,omitempty"`
	Auth   *model.RequestAuth `json:"auth,omitempty"`
}

// URL is the request target. Enabled Query entries are appended to Raw.
type URL struct {
	Raw   string       `json:"raw"`
	Query []QueryParam `json:"query,omitempty"`
}

type QueryParam struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Body is a Postman request body.
type Body struct {
	Mode       string       `json:"mode,omitempty"`
	Raw        string       `json:"raw,omitempty"`
	URLEncoded []FormField  `json:"urlencoded,omitempty"`
	FormData   []FormField  `json:"formdata,omitempty"`
	GraphQL    *GraphQLBody `json:"graphql,omitempty"`
}

// FormField is a urlencoded or multipart field. Multipart fields of type
// "file" read their content from Src.
type FormField struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Type     string `json:"type,omitempty"`
	Src      string `json:"src,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

type GraphQLBody struct {
	Query     string `json:"query,omitempty"`
	Variables string `json:"variables,omitempty"`
}

// NewRequest converts a resolved request into its wire document. The result
// shares nothing with r.
func NewRequest(r *model.ResolvedRequest) *Request {
	req := &Request{
		Method: r.Method,
		URL:    URL{Raw: r.URL},
		Auth:   r.Auth.Clone(),
	}
	if len(r.Header) > 0 {
		req.Header = append([]model.Header(nil), r.Header...)
	}
	if r.Body != "" {
		req.Body = &Body{Mode: ModeRaw, Raw: r.Body}
	}
	return req
}

// EncodeRequest marshals the wire document for r.
func EncodeRequest(r *model.ResolvedRequest) ([]byte, error) {
	return json.Marshal(NewRequest(r))
}

// DecodeRequest parses a wire document.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid request document: %w", err)
	}
	return &req, nil
}

// BuildURL returns URL.Raw with the enabled query entries appended in order.
func (r *Request) BuildURL() string {
	raw := r.URL.Raw
	var pairs []string
	for _, q := range r.URL.Query {
		if q.Disabled || q.Key == "" {
			continue
		}
		pairs = append(pairs, url.QueryEscape(q.Key)+"="+url.QueryEscape(q.Value))
	}
	if len(pairs) == 0 {
		return raw
	}

	base, fragment, hasFragment := strings.Cut(raw, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	out := base + sep + strings.Join(pairs, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// HasHeader reports whether an enabled header named key is present.
func (r *Request) HasHeader(key string) bool {
	_, ok := model.FindHeader(r.Header, key)
	return ok
}

// Encode renders the body. contentType is only set for modes that imply one
// (urlencoded, multipart, graphql). baseDir anchors relative file paths.
func (b *Body) Encode(baseDir string) (body io.Reader, contentType string, err error) {
	if b == nil {
		return nil, "", nil
	}

	switch b.Mode {
	case "", ModeRaw:
		if b.Raw == "" {
			return nil, "", nil
		}
		return strings.NewReader(b.Raw), "", nil
	case ModeNone:
		return nil, "", nil
	case ModeURLEncoded:
		var pairs []string
		for _, f := range b.URLEncoded {
			if f.Disabled {
				continue
			}
			pairs = append(pairs, url.QueryEscape(f.Key)+"="+url.QueryEscape(f.Value))
		}
		return strings.NewReader(strings.Join(pairs, "&")), "application/x-www-form-urlencoded", nil
	case ModeFormData:
		buf, ct, err := BuildMultipartBody(b.FormData, baseDir)
		if err != nil {
			return nil, "", err
		}
		return buf, ct, nil
	case ModeGraphQL:
		data, err := encodeGraphQL(b.GraphQL)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	default:
		return nil, "", fmt.Errorf("unsupported body mode: %s", b.Mode)
	}
}

func encodeGraphQL(g *GraphQLBody) ([]byte, error) {
	payload := make(map[string]any)
	if g != nil {
		if g.Query != "" {
			payload["query"] = g.Query
		}
		if v := strings.TrimSpace(g.Variables); v != "" {
			if json.Valid([]byte(v)) {
				payload["variables"] = json.RawMessage(v)
			} else {
				payload["variables"] = g.Variables
			}
		}
	}
	return json.Marshal(payload)
}

// BuildMultipartBody creates a multipart form body. File fields are resolved
// relative to baseDir and may not escape it.
func BuildMultipartBody(fields []FormField, baseDir string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if field.Disabled {
			continue
		}
		if field.Type != "file" {
			if err := writer.WriteField(field.Key, field.Value); err != nil {
				return nil, "", err
			}
			continue
		}

		filePath := field.Src
		if !filepath.IsAbs(filePath) && baseDir != "" {
			filePath = filepath.Join(baseDir, filePath)
		}
		if err := validatePathWithinBase(filePath, baseDir); err != nil {
			return nil, "", err
		}

		file, err := os.Open(filePath)
		if err != nil {
			return nil, "", err
		}
		part, err := writer.CreateFormFile(field.Key, filepath.Base(filePath))
		if err != nil {
			file.Close()
			return nil, "", err
		}
		_, err = io.Copy(part, file)
		file.Close()
		if err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}
	return nil
}
