// Package jwt wraps token signing and parsing for sessionauth.
//
// Tokens are HS256-signed JWTs carrying the subject id and the session secret
// alongside the standard iat/nbf/exp window. A successfully parsed token is
// necessary but not sufficient for authorization; the engine still compares
// the embedded secret against the live session record.
package jwt
