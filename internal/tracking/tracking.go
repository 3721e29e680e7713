// Package tracking allocates the short public codes customers use to look up
// their orders.
package tracking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Alphabet leaves out 0, O, 1 and I, which are easy to misread.
	Alphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength  = 8
	MaxAttempts = 10
)

var ErrAllocationExhausted = errors.New("could not allocate tracking code")

// ExhaustedError is returned when every attempt collided or failed to check.
// Last holds the most recent lookup error, if any.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("could not allocate tracking code after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("could not allocate tracking code after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllocationExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Checker answers whether a code is already used by a persisted order.
type Checker interface {
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
}

type Generator struct {
	random      io.Reader
	maxAttempts int
}

type Option func(*Generator)

// WithRandom replaces crypto/rand as the entropy source.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{random: rand.Reader, maxAttempts: MaxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate draws one candidate code. The modulo is unbiased because the
// alphabet has 32 symbols.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	var sb strings.Builder
	sb.Grow(CodeLength)
	for _, b := range buf {
		sb.WriteByte(Alphabet[int(b)%len(Alphabet)])
	}
	return sb.String(), nil
}

// Allocation reports a code that was free when checked and how many
// candidates were tried to find it.
type Allocation struct {
	Code     string
	Attempts int
}

// EnsureUnique draws candidates until one is unused, up to the attempt
// budget. A failed lookup consumes an attempt. The check is not a
// reservation: the unique index on orders is the final guard.
func (g *Generator) EnsureUnique(ctx context.Context, checker Checker) (Allocation, error) {
	var last error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}

		code, err := g.Generate()
		if err != nil {
			return Allocation{}, err
		}

		exists, err := checker.TrackingCodeExists(ctx, code)
		if err != nil {
			last = err
			continue
		}
		if !exists {
			return Allocation{Code: code, Attempts: attempt}, nil
		}
	}
	return Allocation{}, &ExhaustedError{Attempts: g.maxAttempts, Last: last}
}

// IsValid reports whether code has the tracking code shape.
func IsValid(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// Normalize upper-cases and trims user input before lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
