// Package digest computes the content fingerprint recorded on the ledger.
//
// The fingerprint is always computed over the original, unmodified uploaded
// bytes, never over a stamped artifact; re-verifying a stamped artifact goes
// through payload extraction instead of recomputation.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
)

var hexDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Bytes returns the lowercase hex SHA-256 digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Reader returns the lowercase hex SHA-256 digest of everything read from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("digest: failed to read input: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the lowercase hex SHA-256 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest: failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Reader(f)
}

// Valid reports whether s has the shape of a fingerprint produced by this
// package: 64 lowercase hex characters.
func Valid(s string) bool {
	return hexDigestPattern.MatchString(s)
}
