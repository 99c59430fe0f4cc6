// Package password implements argon2id hashing and constant-time
// verification for the credential verifier.
//
// Hashes use the PHC string format ($argon2id$v=...$m=...,t=...,p=...$salt$hash)
// so parameters travel with the hash and verification never depends on the
// current process configuration.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O beyond crypto/rand.
//   - Import authcore, jwt, or session.
//   - Distinguish "wrong password" from any other verification outcome in
//     timing or error detail.
package password
