package token

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layout constants for the 128-bit enrollment token.
const (
	// Size is the binary token length in bytes.
	Size = 16

	// TextLength is the canonical 8-4-4-4-12 text length.
	TextLength = 36

	// Version is the fixed version nibble (bits 48-51).
	Version = 7

	// TimestampBytes is the number of leading bytes holding the timestamp.
	TimestampBytes = 6

	// RandomBytes is the number of bytes filled from the entropy source
	// before the version and variant bits are forced.
	RandomBytes = Size - TimestampBytes

	// MaxTimestampMs is the largest millisecond value that fits in 48 bits.
	MaxTimestampMs = 1<<48 - 1
)

// Errors returned by the layout functions.
var (
	ErrMalformed        = errors.New("token: malformed")
	ErrTimestampRange   = errors.New("token: timestamp out of 48-bit range")
	ErrClockUnavailable = errors.New("token: clock unavailable")
)

// Token is a 128-bit time-ordered enrollment identifier.
type Token [Size]byte

// Nil is the zero token. It never parses successfully.
var Nil Token

// Build lays out a token from a millisecond timestamp and 10 bytes of
// randomness. The version nibble and variant bits are overwritten, so 74 of
// the 80 random bits survive.
func Build(unixMs int64, random [RandomBytes]byte) (Token, error) {
	if unixMs < 0 || unixMs > MaxTimestampMs {
		return Nil, fmt.Errorf("%w: %d", ErrTimestampRange, unixMs)
	}

	var t Token
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(unixMs))
	copy(t[:TimestampBytes], ts[2:])
	copy(t[TimestampBytes:], random[:])

	t[6] = (t[6] & 0x0f) | Version<<4
	t[8] = (t[8] & 0x3f) | 0x80
	return t, nil
}

// Parse decodes the 36-character hyphenated text form. Upper-case hex is
// accepted; String always renders lower case.
func Parse(s string) (Token, error) {
	if len(s) != TextLength {
		return Nil, fmt.Errorf("%w: length %d, want %d", ErrMalformed, len(s), TextLength)
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if u.Version() != Version {
		return Nil, fmt.Errorf("%w: version %d, want %d", ErrMalformed, u.Version(), Version)
	}
	if u.Variant() != uuid.RFC4122 {
		return Nil, fmt.Errorf("%w: variant %s", ErrMalformed, u.Variant())
	}
	return Token(u), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(s string) Token {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FromBytes validates a raw 16-byte value.
func FromBytes(b []byte) (Token, error) {
	if len(b) != Size {
		return Nil, fmt.Errorf("%w: %d bytes, want %d", ErrMalformed, len(b), Size)
	}
	var t Token
	copy(t[:], b)
	return Parse(t.String())
}

// String renders the canonical lower-case 8-4-4-4-12 form.
func (t Token) String() string {
	return uuid.UUID(t).String()
}

// Bytes returns a copy of the raw 16 bytes.
func (t Token) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, t[:])
	return b
}

// UnixMilli returns the embedded 48-bit millisecond timestamp.
func (t Token) UnixMilli() int64 {
	var ts [8]byte
	copy(ts[2:], t[:TimestampBytes])
	return int64(binary.BigEndian.Uint64(ts[:]))
}

// Timestamp returns the embedded timestamp as a UTC time.
func (t Token) Timestamp() time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}

// Version returns the version nibble.
func (t Token) Version() int {
	return int(t[6] >> 4)
}

// IsNil reports whether t is the zero token.
func (t Token) IsNil() bool {
	return t == Nil
}

// Key returns the replay-store key for the token. The key is derived from
// the canonical text so that case variants of the same token collide.
func (t Token) Key() string {
	return KeyPrefix + t.String()
}

// KeyPrefix namespaces replay records in shared stores.
const KeyPrefix = "token:"

// Canonical normalises a textual token. It is Parse followed by String.
func Canonical(s string) (string, error) {
	t, err := Parse(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
