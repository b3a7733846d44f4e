// Package sessionauth provides first-party session issuance and validation for a
// single trusted backend: opaque login sessions held in Redis under one key per
// user, wrapped in a stateless signed-token envelope, with registration, password,
// and email-verification flows layered on top.
//
// A presented token is authorized only when its signature verifies, the current
// time falls inside its validity window, a session record exists for its subject,
// and the token's embedded session secret equals the cached one. Rotating the
// secret therefore invalidates every previously issued token for that user at
// once, which is how password changes revoke outstanding logins.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. All mutation of a user's session record goes through
// per-key-atomic Redis operations; there is no in-process session state.
//
// sessionauth is a library, not a service. HTTP routing, user persistence, and
// email delivery stay outside, consumed through the [UserStore], [CodeVerifier],
// and [CodeSender] contracts.
package sessionauth
