// Package session implements the cache-resident session record store.
//
// A record binds a user to the session secret that authorizes their tokens,
// plus a point-in-time snapshot of the account. Records live in Redis under one
// key per user with a sliding TTL that is reset on every write and never on
// reads. All writes are single atomic Redis operations (Lua where a
// read-modify-write is needed), so updates for one user are serialized by the
// server without any client-side locking.
package session
