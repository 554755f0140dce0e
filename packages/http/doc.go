// Package http is the reference transport for resolved requests.
//
// It accepts the Postman-shaped wire document
//
//	{method, url:{raw}, header:[{key,value}], body?:{mode:"raw",raw}, auth?}
//
// and answers with {status_code, headers:[[name,value]], body, duration_ms}.
// A request that cannot be built or executed is reported through Send as a
// response with status code 0 and an "Error: ..." body, never as a Go error.
//
// On top of plain sending the client handles:
//   - Configurable timeouts, redirects, TLS validation and proxies
//   - Default headers
//   - Digest challenge/response for digest auth
//   - OAuth2 token acquisition when an oauth2 block carries no access token
//   - urlencoded, multipart and GraphQL bodies
//   - Rate limiting for multi-request sends
package http
