// Package capture harvests credential-shaped values from HTTP responses.
//
// Extract walks a successful JSON body depth-first and proposes every string
// field whose key looks like a token (token, access_token, jwt, apiKey, ...)
// as a Candidate. Candidates carry the field's location in the document so
// duplicates can be told apart, and a suggested token name derived from the
// key alone. Nothing is saved; callers decide which candidates go into an
// auth.TokenStore.
package capture
