// Package internal contains helper utilities that are intentionally private to
// sessionauth: secure random generation for session secrets and one-time codes.
//
// # What this package must NOT do
//
//   - Export types that appear in the public sessionauth API.
//   - Be imported by any package outside the sessionauth module.
package internal
