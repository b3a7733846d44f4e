// Package verify implements the built-in email verification collaborator:
// Redis-backed single-use numeric codes with an attempt budget, checked
// atomically server-side.
package verify
