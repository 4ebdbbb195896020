package token

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// Clock supplies the current time to a Generator.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Generator mints enrollment tokens. It holds no mutable state; concurrent
// use is safe as long as the entropy reader is.
type Generator struct {
	clock   Clock
	entropy io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// WithEntropy sets the random source. It must be cryptographically strong
// outside of tests.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) {
		g.entropy = r
	}
}

// NewGenerator creates a Generator reading the system clock and crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		clock:   SystemClock,
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// New mints a token.
func (g *Generator) New() (Token, error) {
	ms, err := g.nowMillis()
	if err != nil {
		return Nil, err
	}

	var random [RandomBytes]byte
	if _, err := io.ReadFull(g.entropy, random[:]); err != nil {
		return Nil, fmt.Errorf("token: read entropy: %w", err)
	}

	return Build(ms, random)
}

// Generate mints a token and returns its canonical text form.
func (g *Generator) Generate() (string, error) {
	t, err := g.New()
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func (g *Generator) nowMillis() (int64, error) {
	if g.clock == nil {
		return 0, ErrClockUnavailable
	}
	now := g.clock.Now()
	if now.IsZero() {
		return 0, fmt.Errorf("%w: zero time", ErrClockUnavailable)
	}
	ms := now.UnixMilli()
	if ms < 0 || ms > MaxTimestampMs {
		return 0, fmt.Errorf("%w: %s outside 48-bit range", ErrClockUnavailable, now.UTC().Format(time.RFC3339))
	}
	return ms, nil
}

var defaultGenerator = NewGenerator()

// Generate mints a token with the system clock and crypto/rand.
func Generate() (string, error) {
	return defaultGenerator.Generate()
}
