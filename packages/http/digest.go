package http

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// digestChallenge is a parsed WWW-Authenticate: Digest header.
type digestChallenge struct {
	Realm     string
	Nonce     string
	Opaque    string
	Qop       string
	Algorithm string
}

// ParseWWWAuthenticate parses the key=value pairs of a digest challenge.
func ParseWWWAuthenticate(header string) map[string]string {
	result := make(map[string]string)

	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "digest ") {
		header = header[7:]
	}

	for _, part := range splitChallenge(header) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		result[strings.ToLower(strings.TrimSpace(key))] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return result
}

// splitChallenge splits on commas outside quotes; qop="auth,auth-int" is one
// parameter.
func splitChallenge(s string) []string {
	var parts []string
	var cur strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func parseDigestChallenge(header string) digestChallenge {
	p := ParseWWWAuthenticate(header)
	return digestChallenge{
		Realm:     p["realm"],
		Nonce:     p["nonce"],
		Opaque:    p["opaque"],
		Qop:       p["qop"],
		Algorithm: p["algorithm"],
	}
}

// DigestAuth computes a digest Authorization header for one request.
type DigestAuth struct {
	Username  string
	Password  string
	Method    string
	URI       string
	Nc        string
	Cnonce    string
	challenge digestChallenge
}

// digestFromAuth reads username and password from a resolved digest block.
func digestFromAuth(a *model.RequestAuth) (*DigestAuth, bool) {
	if a == nil || a.Type != model.AuthDigest {
		return nil, false
	}
	return &DigestAuth{
		Username: a.Value("username"),
		Password: a.Value("password"),
	}, true
}

func (d *DigestAuth) qop() string {
	if d.challenge.Qop == "" {
		return ""
	}
	for _, q := range strings.Split(d.challenge.Qop, ",") {
		if strings.TrimSpace(q) == "auth" {
			return "auth"
		}
	}
	return ""
}

func (d *DigestAuth) newHash() hash.Hash {
	if strings.HasPrefix(strings.ToUpper(d.challenge.Algorithm), "SHA-256") {
		return sha256.New()
	}
	return md5.New()
}

func (d *DigestAuth) digest(s string) string {
	h := d.newHash()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeDigestResponse calculates the response hash (RFC 7616).
func (d *DigestAuth) ComputeDigestResponse() string {
	c := d.challenge
	ha1 := d.digest(fmt.Sprintf("%s:%s:%s", d.Username, c.Realm, d.Password))
	if strings.HasSuffix(strings.ToLower(c.Algorithm), "-sess") {
		ha1 = d.digest(fmt.Sprintf("%s:%s:%s", ha1, c.Nonce, d.Cnonce))
	}
	ha2 := d.digest(fmt.Sprintf("%s:%s", d.Method, d.URI))

	if qop := d.qop(); qop != "" {
		return d.digest(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, c.Nonce, d.Nc, d.Cnonce, qop, ha2))
	}
	return d.digest(fmt.Sprintf("%s:%s:%s", ha1, c.Nonce, ha2))
}

// BuildAuthorizationHeader creates the Authorization header value.
func (d *DigestAuth) BuildAuthorizationHeader() string {
	c := d.challenge
	parts := []string{
		fmt.Sprintf(`username="%s"`, d.Username),
		fmt.Sprintf(`realm="%s"`, c.Realm),
		fmt.Sprintf(`nonce="%s"`, c.Nonce),
		fmt.Sprintf(`uri="%s"`, d.URI),
		fmt.Sprintf(`response="%s"`, d.ComputeDigestResponse()),
	}
	if c.Algorithm != "" {
		parts = append(parts, "algorithm="+c.Algorithm)
	}
	if qop := d.qop(); qop != "" {
		parts = append(parts, "qop="+qop, "nc="+d.Nc, fmt.Sprintf(`cnonce="%s"`, d.Cnonce))
	}
	if c.Opaque != "" {
		parts = append(parts, fmt.Sprintf(`opaque="%s"`, c.Opaque))
	}
	return "Digest " + strings.Join(parts, ", ")
}

// GenerateCnonce generates a random client nonce
func GenerateCnonce() (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
