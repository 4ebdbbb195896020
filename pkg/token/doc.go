// Package token provides the enrollment token layout and generator.
//
// Token Format (RFC 9562 version 7 layout):
//
//   - Bits 0-47: Unix timestamp in milliseconds, big-endian
//   - Bits 48-51: version, always 7
//   - Bits 52-63: random
//   - Bits 64-65: variant, always binary 10
//   - Bits 66-127: random
//
// Text form: lower-case hyphenated hex, 8-4-4-4-12 groups, 36 characters.
//
// Security:
//
//   - Uses crypto/rand for the 74 random bits
//   - Tokens are single use; freshness and replay checks live server side
package token
