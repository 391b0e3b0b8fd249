// Package certid mints human-readable certificate identifiers.
//
// Uniqueness is probabilistic: the date narrows the space and four random
// digits separate same-day registrations. Collisions are rejected by the
// registry's already-exists check, so the generator is a usability mechanism,
// not a security boundary; identifiers are public.
package certid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// Prefix is the fixed leading token of every certificate identifier.
const Prefix = "CERT"

var pattern = regexp.MustCompile(`^CERT-\d{8}-\d{4}$`)

var randMax = big.NewInt(10000)

// New returns an identifier of the shape CERT-<YYYYMMDD>-<4 random digits>.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt returns an identifier derived from the given time's UTC date.
func NewAt(t time.Time) string {
	n, err := rand.Int(rand.Reader, randMax)
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken;
		// fall back to the clock's sub-second digits rather than aborting.
		return fmt.Sprintf("%s-%s-%04d", Prefix, t.UTC().Format("20060102"), t.Nanosecond()%10000)
	}
	return fmt.Sprintf("%s-%s-%04d", Prefix, t.UTC().Format("20060102"), n.Int64())
}

// Valid reports whether id has the canonical certificate identifier shape.
func Valid(id string) bool {
	return pattern.MatchString(id)
}
