package env

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver substitutes {{name}} placeholders from a fixed snapshot of an
// environment and a token pool. The value map is built once at construction,
// so every placeholder with the same name resolves to the same value and a
// Resolver is safe for concurrent use.
//
// Environment variables take precedence over tokens of the same name. A nil
// environment disables substitution entirely.
type Resolver struct {
	values   map[string]string
	enabled  bool
	warnFunc WarnFunc
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithWarnFunc sets a function to be called for each unresolved placeholder.
func WithWarnFunc(fn WarnFunc) ResolverOption {
	return func(r *Resolver) {
		r.warnFunc = fn
	}
}

// NewResolver snapshots env and tokens into a name→value view.
func NewResolver(env *model.Environment, tokens []model.AuthToken, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		values:  make(map[string]string),
		enabled: env != nil,
	}
	for _, opt := range opts {
		opt(r)
	}
	if env == nil {
		return r
	}

	for _, v := range env.Variables {
		if v.Disabled {
			continue
		}
		if _, ok := r.values[v.Key]; !ok {
			r.values[v.Key] = v.Value
		}
	}

	// Later tokens overwrite earlier ones of the same name, but never an
	// environment variable.
	tokenValues := make(map[string]string)
	for _, t := range tokens {
		tokenValues[t.Name] = t.Value
	}
	for name, value := range tokenValues {
		if _, ok := r.values[name]; !ok {
			r.values[name] = value
		}
	}

	return r
}

// Lookup returns the snapshot value for name.
func (r *Resolver) Lookup(name string) (string, bool) {
	if !r.enabled {
		return "", false
	}
	v, ok := r.values[name]
	return v, ok
}

// Resolve replaces every {{name}} whose trimmed name has a value. Unknown
// placeholders are left verbatim. Substituted values are not re-scanned.
func (r *Resolver) Resolve(input string) string {
	if !r.enabled || input == "" || !strings.Contains(input, "{{") {
		return input
	}

	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if name == "" {
			return match
		}
		if val, ok := r.values[name]; ok {
			return val
		}
		r.warn("unresolved variable: %s", name)
		return match
	})
}

// ResolveAll resolves the values of a map, leaving keys untouched.
func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// Unresolved returns the distinct placeholder names in input that have no
// value, in order of first appearance.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := r.Lookup(name); !ok {
			names = append(names, name)
		}
	}
	return names
}

// HasUnresolved reports whether input still contains a placeholder without
// a value.
func (r *Resolver) HasUnresolved(input string) bool {
	return len(r.Unresolved(input)) > 0
}

func (r *Resolver) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

// Resolve substitutes placeholders in text using env, falling back to tokens
// for names env does not define. It is a pure function of its inputs.
func Resolve(text string, env *model.Environment, tokens []model.AuthToken) string {
	if env == nil || text == "" {
		return text
	}
	return NewResolver(env, tokens).Resolve(text)
}

// Placeholders returns the distinct trimmed names referenced in text, in
// order of first appearance.
func Placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range variablePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
