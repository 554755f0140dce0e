// Package auth turns auth settings into request credentials.
//
// It covers three concerns:
//   - Inheritance: a request's auth block overrides its collection's, and an
//     absent or "inherit" block defers to the collection (one level only;
//     collections do not chain auth through their ancestors)
//   - Synthesis: producing Authorization (or api key) headers and query
//     parameters from an effective, already-resolved block
//   - Tokens: the process-lifetime pool of named credentials used for
//     automatic bearer injection and {{name}} substitution
package auth
