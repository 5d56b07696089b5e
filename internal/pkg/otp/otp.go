// Package otp holds short-lived numeric verification codes keyed by an
// identifier (email or phone). The store is memory-resident by design: a
// process restart invalidates all outstanding codes, which is acceptable
// given the short TTL.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Digits is the fixed code width. Codes are zero-padded to this length.
const Digits = 6

var codeSpace = big.NewInt(1_000_000) // 10^Digits

// Generate returns a 6-digit numeric code, uniformly distributed over
// [000000, 999999] and zero-padded to fixed width.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()), nil
}

// Result is the outcome of a verification attempt.
type Result struct {
	Valid  bool
	Reason string
}

type entry struct {
	code      string
	expiresAt time.Time
}

// Registry stores at most one live code per identifier. All operations on a
// given identifier are serialized by a single mutex, making Verify an atomic
// check-and-consume: two concurrent attempts with the same valid code cannot
// both succeed.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Issue stores code for identifier with an absolute expiry of now+ttl,
// replacing any previously issued code for the same identifier.
func (r *Registry) Issue(identifier, code string, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[identifier] = entry{code: code, expiresAt: r.now().Add(ttl)}
}

// Verify checks code against the stored entry for identifier and consumes it
// on success. An expired entry is evicted and rejected. A mismatched code
// leaves the entry in place so the caller may retry until expiry.
func (r *Registry) Verify(identifier, code string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[identifier]
	if !ok {
		return Result{Reason: "OTP not found or expired"}
	}
	if r.now().After(e.expiresAt) {
		delete(r.entries, identifier)
		return Result{Reason: "OTP expired"}
	}
	if e.code != code {
		return Result{Reason: "invalid OTP"}
	}
	delete(r.entries, identifier)
	return Result{Valid: true, Reason: "OTP verified"}
}
