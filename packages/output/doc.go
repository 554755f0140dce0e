// Package output prints what a run produced: the composed request, the
// response and any token candidates found in it.
//
// New picks a Formatter by name. The console formatter writes as results
// arrive; the JSON formatter collects them and writes a single document on
// Flush. The console formatter masks secrets unless WithShowSecrets is
// given; JSON output carries them verbatim for scripting.
package output
