// Package ocrauth provides a challenge-response second-factor authentication
// engine based on RFC 6287 OCRA, with out-of-band enrollment of mobile
// authenticators and pluggable expiring state storage.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// ocrauth is the public surface. It exposes [Engine], [Builder], [Config],
// [ResponseVerifier], and value types (AuthResult, EnrollmentMetadata,
// MetricsSnapshot, etc.). OCRA computation lives in the ocra sub-package and
// state backends live in the storage sub-package; neither imports ocrauth.
//
// # What this package must NOT do
//
//   - Persist user OCRA secrets. Callers own secret storage and pass secrets
//     into [Engine.Authenticate] per call.
//   - Expose storage clients or state encoding details in its public API.
//   - Log challenges, responses, or secrets at any level.
package ocrauth
