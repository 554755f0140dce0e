package model

// TokenSource records how an AuthToken entered the pool.
type TokenSource string

const (
	TokenManual    TokenSource = "manual"
	TokenExtracted TokenSource = "extracted"
)

// AuthToken is a named credential held in memory for the life of the process.
type AuthToken struct {
	Name   string      `json:"name"`
	Value  string      `json:"value"`
	Source TokenSource `json:"source"`
}
