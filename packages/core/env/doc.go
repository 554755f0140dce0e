// Package env handles environments and variable resolution for ababil.
//
// It provides functionality for:
//   - Looking up variables in an environment snapshot (first enabled match wins)
//   - Variable interpolation using {{variable}} syntax, with auth tokens as a
//     lower-precedence fallback
//   - Reporting placeholders that stayed unresolved
//   - Loading and saving environment files (YAML) and importing .env files
package env
