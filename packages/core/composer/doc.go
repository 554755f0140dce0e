// Package composer turns a draft request into the wire-ready request that is
// handed to the transport.
//
// Composition is a pure transform over snapshots: the active environment,
// the token pool and the collection auth are passed in, nothing is read from
// shared state, and the result never aliases caller-owned values. Missing
// variables and tokens degrade (placeholders stay verbatim, auth stays
// empty); only a palpably malformed draft is rejected.
package composer
