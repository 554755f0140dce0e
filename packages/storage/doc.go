// Package storage persists environments, collections and saved requests in a
// SQLite key-value table.
//
// Each entity kind is stored as one JSON document under a fixed key, plus a
// separate key for the active environment id. Every mutation runs in a
// single transaction, so the invariants hold across keys:
//   - at most one environment is active
//   - deleting a collection removes its descendants, their requests and the
//     environments linked to any of them
//
// Tokens are never stored here; they live in an auth.TokenStore for the life
// of the process.
package storage
