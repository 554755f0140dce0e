package capture

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/ababil/packages/auth"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// Candidate is a credential-shaped field found in a response body.
type Candidate struct {
	Name               string `json:"name"`
	Value              string `json:"value"`
	Path               string `json:"path"`
	SuggestedTokenName string `json:"suggestedTokenName"`
}

// TokenFieldNames lists the recognized field names. Matching is
// case-insensitive and the listed spelling is the suggested token name.
var TokenFieldNames = []string{
	"token",
	"access_token",
	"accessToken",
	"refresh_token",
	"refreshToken",
	"id_token",
	"idToken",
	"jwt",
	"api_key",
	"apiKey",
	"auth_token",
	"authToken",
	"bearer_token",
	"bearerToken",
}

var tokenFields = func() map[string]string {
	m := make(map[string]string, len(TokenFieldNames))
	for _, name := range TokenFieldNames {
		m[strings.ToLower(name)] = name
	}
	return m
}()

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$-]*$`)

// Extract returns the token candidates in body, in document order. It only
// looks at 2xx responses with a valid JSON body; anything else yields nil.
func Extract(statusCode int, body string) []Candidate {
	if statusCode < 200 || statusCode >= 300 {
		return nil
	}
	if !gjson.Valid(body) {
		return nil
	}

	var out []Candidate
	walk(gjson.Parse(body), "", &out)
	return out
}

// ExtractResponse runs Extract on a transport response. A nil response or
// the status-0 failure sentinel yields nil.
func ExtractResponse(resp *http.Response) []Candidate {
	if resp == nil {
		return nil
	}
	return Extract(resp.StatusCode, resp.Body)
}

// ExtractTokens is Extract with the candidates converted to extracted
// tokens, ready for an auth.TokenStore.
func ExtractTokens(statusCode int, body string) []model.AuthToken {
	candidates := Extract(statusCode, body)
	if len(candidates) == 0 {
		return nil
	}
	tokens := make([]model.AuthToken, len(candidates))
	for i, c := range candidates {
		tokens[i] = c.Token()
	}
	return tokens
}

// SaveAll stores every candidate in store under its suggested name. Later
// candidates with the same name overwrite earlier ones.
func SaveAll(store *auth.TokenStore, candidates []Candidate) {
	for _, c := range candidates {
		store.Save(c.Token())
	}
}

// Token converts the candidate to an extracted token named after its
// suggested name.
func (c Candidate) Token() model.AuthToken {
	return model.AuthToken{
		Name:   c.SuggestedTokenName,
		Value:  c.Value,
		Source: model.TokenExtracted,
	}
}

// SuggestedName returns the canonical token name for a field key, or false
// when the key is not credential-shaped.
func SuggestedName(key string) (string, bool) {
	name, ok := tokenFields[strings.ToLower(key)]
	return name, ok
}

func walk(node gjson.Result, path string, out *[]Candidate) {
	switch {
	case node.IsObject():
		node.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			child := joinKey(path, k)
			if value.Type == gjson.String && value.Str != "" {
				if name, ok := SuggestedName(k); ok {
					*out = append(*out, Candidate{
						Name:               k,
						Value:              value.Str,
						Path:               child,
						SuggestedTokenName: name,
					})
				}
			}
			walk(value, child, out)
			return true
		})
	case node.IsArray():
		i := 0
		node.ForEach(func(_, value gjson.Result) bool {
			walk(value, path+"["+strconv.Itoa(i)+"]", out)
			i++
			return true
		})
	}
}

func joinKey(path, key string) string {
	if !identPattern.MatchString(key) {
		return path + "[" + strconv.Quote(key) + "]"
	}
	if path == "" {
		return key
	}
	return path + "." + key
}
