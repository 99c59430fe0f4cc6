// Package internal holds helpers shared by authcore and its flow code:
// refresh-artifact generation and fingerprinting.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import authcore, jwt, or session.
package internal
