// Package password implements the credential encoder: argon2id hashing with
// PHC-format encoding, constant-time verification, and rehash detection for
// parameter upgrades.
package password
