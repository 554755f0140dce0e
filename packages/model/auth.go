package model

import "strings"

// AuthType discriminates the RequestAuth union.
type AuthType string

const (
	// AuthInherit defers to the parent collection. An empty type means the same.
	AuthInherit AuthType = "inherit"
	AuthNoAuth  AuthType = "noauth"
	AuthBearer  AuthType = "bearer"
	AuthBasic   AuthType = "basic"
	AuthAPIKey  AuthType = "apikey"
	AuthDigest  AuthType = "digest"
	AuthOAuth1  AuthType = "oauth1"
	AuthOAuth2  AuthType = "oauth2"
)

// AuthVariable is one key/value pair inside an auth block.
type AuthVariable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// RequestAuth is the Postman-shaped auth block held by requests and
// collections. A nil *RequestAuth means "inherit from the parent collection".
type RequestAuth struct {
	Type   AuthType       `json:"type"`
	Bearer []AuthVariable `json:"bearer,omitempty"`
	Basic  []AuthVariable `json:"basic,omitempty"`
	APIKey []AuthVariable `json:"apikey,omitempty"`
	Digest []AuthVariable `json:"digest,omitempty"`
	OAuth1 []AuthVariable `json:"oauth1,omitempty"`
	OAuth2 []AuthVariable `json:"oauth2,omitempty"`
}

// IsInherit reports whether the block defers to its parent.
func (a *RequestAuth) IsInherit() bool {
	return a == nil || a.Type == "" || a.Type == AuthInherit
}

// Params returns the key/value list belonging to the block's own type.
func (a *RequestAuth) Params() []AuthVariable {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthBearer:
		return a.Bearer
	case AuthBasic:
		return a.Basic
	case AuthAPIKey:
		return a.APIKey
	case AuthDigest:
		return a.Digest
	case AuthOAuth1:
		return a.OAuth1
	case AuthOAuth2:
		return a.OAuth2
	}
	return nil
}

// Get returns the value of the first parameter of the block's type whose key
// matches (case-insensitive).
func (a *RequestAuth) Get(key string) (string, bool) {
	for _, p := range a.Params() {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (a *RequestAuth) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Clone returns a deep copy of the block.
func (a *RequestAuth) Clone() *RequestAuth {
	if a == nil {
		return nil
	}
	return &RequestAuth{
		Type:   a.Type,
		Bearer: cloneVars(a.Bearer),
		Basic:  cloneVars(a.Basic),
		APIKey: cloneVars(a.APIKey),
		Digest: cloneVars(a.Digest),
		OAuth1: cloneVars(a.OAuth1),
		OAuth2: cloneVars(a.OAuth2),
	}
}

// MapStrings returns a copy with fn applied to every key and value of every
// parameter list.
func (a *RequestAuth) MapStrings(fn func(string) string) *RequestAuth {
	if a == nil {
		return nil
	}
	apply := func(vars []AuthVariable) []AuthVariable {
		if vars == nil {
			return nil
		}
		out := make([]AuthVariable, len(vars))
		for i, v := range vars {
			out[i] = AuthVariable{Key: fn(v.Key), Value: fn(v.Value), Type: v.Type}
		}
		return out
	}
	return &RequestAuth{
		Type:   a.Type,
		Bearer: apply(a.Bearer),
		Basic:  apply(a.Basic),
		APIKey: apply(a.APIKey),
		Digest: apply(a.Digest),
		OAuth1: apply(a.OAuth1),
		OAuth2: apply(a.OAuth2),
	}
}

func cloneVars(vars []AuthVariable) []AuthVariable {
	if vars == nil {
		return nil
	}
	return append([]AuthVariable(nil), vars...)
}
