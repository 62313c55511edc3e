// Package slug derives URL-safe identifiers from display names and resolves
// collisions with a numeric suffix.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxLength is the longest base slug Make returns.
	MaxLength = 100
	// MaxAttempts bounds the candidates Claim and Probe try before giving up.
	MaxAttempts = 1000
)

// ErrExhausted is returned when MaxAttempts candidates were all taken.
var ErrExhausted = errors.New("slug: no free candidate")

// Make lowercases name, collapses every run of characters outside [a-z0-9] into one
// hyphen, trims hyphens from both ends and truncates to MaxLength.
// Make(Make(s)) == Make(s).
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	s := b.String()
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// MakeOr is Make with a fallback for names that normalize to nothing.
func MakeOr(name, fallback string) string {
	if s := Make(name); s != "" {
		return s
	}
	return fallback
}

// Candidate returns the n-th candidate for base: base itself, then base-1, base-2, ...
func Candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// ClaimFunc tries to take candidate atomically, typically an INSERT ... ON CONFLICT
// (slug) DO NOTHING. It reports whether the row was written.
type ClaimFunc func(ctx context.Context, candidate string) (bool, error)

// Claim walks the candidates for base until claim succeeds and returns the slug taken.
func Claim(ctx context.Context, base string, claim ClaimFunc) (string, error) {
	for n := 0; n < MaxAttempts; n++ {
		candidate := Candidate(base, n)
		ok, err := claim(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("claim slug %q: %w", candidate, err)
		}
		if ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %q after %d attempts", ErrExhausted, base, MaxAttempts)
}

// ExistsFunc reports whether candidate is already in use.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Probe returns the first candidate for base that is free at the time of the check.
// The result can be taken by a concurrent writer; use Claim when inserting.
func Probe(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	for n := 0; n < MaxAttempts; n++ {
		candidate := Candidate(base, n)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %q after %d attempts", ErrExhausted, base, MaxAttempts)
}
