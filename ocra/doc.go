// Package ocra implements the RFC 6287 OCRA (OATH Challenge-Response
// Algorithm) computation used by the authentication engine.
//
// The package is deliberately small: a suite parser, the keyed response
// computation, and a challenge generator. All data inputs are hex strings,
// padded to the fixed field widths the RFC reference implementation uses,
// so responses are bit-for-bit compatible with mobile clients of any vendor.
//
// Everything here is pure and safe for concurrent use; no function performs
// network or disk I/O.
package ocra
