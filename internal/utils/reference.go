package utils // package utils provides the booking reference generator

import (
	"crypto/rand" // secure random source for references
	"errors"
	"fmt"
	"io"
)

const (
	// ReferenceLength is the number of symbols in a booking reference.
	ReferenceLength = 8
	// ReferenceAlphabet holds the symbols a reference is drawn from.
	ReferenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// acceptLimit is the largest multiple of len(ReferenceAlphabet) that
	// fits in a byte.  Bytes at or above it are discarded so every symbol
	// is equally likely.
	acceptLimit = 252

	// referenceSpace is 36^8, the number of distinct references.
	referenceSpace = 2_821_109_907_456
)

// ErrReferencesExhausted is returned by Next once every possible reference
// has been issued.
var ErrReferencesExhausted = errors.New("booking references exhausted")

// ReferenceGenerator issues booking references that are unique for the
// lifetime of the generator.  It remembers every reference it returned and
// every reference passed to Track.  It is not safe for concurrent use.
type ReferenceGenerator struct {
	issued map[string]struct{}
	random io.Reader
}

// ReferenceOption configures a ReferenceGenerator.
type ReferenceOption func(*ReferenceGenerator)

// WithRandomSource replaces crypto/rand as the byte source.  Intended for
// tests that need predictable output.
func WithRandomSource(r io.Reader) ReferenceOption {
	return func(g *ReferenceGenerator) { g.random = r }
}

// NewReferenceGenerator returns a generator with an empty issued set.
func NewReferenceGenerator(opts ...ReferenceOption) *ReferenceGenerator {
	g := &ReferenceGenerator{
		issued: make(map[string]struct{}),
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a new reference of ReferenceLength symbols.  Candidates that
// collide with an issued or tracked reference are discarded and redrawn.
func (g *ReferenceGenerator) Next() (string, error) {
	if int64(len(g.issued)) >= referenceSpace {
		return "", ErrReferencesExhausted
	}
	for {
		ref, err := g.draw()
		if err != nil {
			return "", err
		}
		if _, taken := g.issued[ref]; taken {
			continue
		}
		g.issued[ref] = struct{}{}
		return ref, nil
	}
}

// draw builds one candidate by rejection sampling over the random source.
func (g *ReferenceGenerator) draw() (string, error) {
	out := make([]byte, 0, ReferenceLength)
	var buf [ReferenceLength]byte
	for len(out) < ReferenceLength {
		if _, err := io.ReadFull(g.random, buf[:]); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= acceptLimit {
				continue
			}
			out = append(out, ReferenceAlphabet[int(b)%len(ReferenceAlphabet)])
			if len(out) == ReferenceLength {
				break
			}
		}
	}
	return string(out), nil
}

// Track marks ref as issued so Next never returns it.  It is used to seed
// the generator with references already stored in the ledger.
func (g *ReferenceGenerator) Track(ref string) {
	g.issued[ref] = struct{}{}
}

// Issued reports whether ref was returned by Next or passed to Track.
func (g *ReferenceGenerator) Issued(ref string) bool {
	_, ok := g.issued[ref]
	return ok
}

// Len returns the number of known references.
func (g *ReferenceGenerator) Len() int { return len(g.issued) }

// ValidReference reports whether ref has the shape of a booking reference:
// exactly ReferenceLength symbols from ReferenceAlphabet.
func ValidReference(ref string) bool {
	if len(ref) != ReferenceLength {
		return false
	}
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
