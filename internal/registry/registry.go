// Package registry provides the client side of the on-chain document
// registry. The ledger serializes all writes; clients issue calls
// synchronously and wait for a finalized result, with no local locking,
// queueing or retry.
package registry

import (
	"context"

	"docproof/model"
)

// Receipt is returned by a successful registration.
type Receipt struct {
	CertificateNumber string
	Timestamp         int64 // seconds since epoch, assigned by the ledger
	TxID              string
	BlockNumber       uint64
}

// Outcome is the result of a fingerprint comparison against the registry.
// For an unknown certificate number, Matches is false and Timestamp is 0.
type Outcome struct {
	Matches   bool
	Timestamp int64
}

// Registry is the explicit, passed-by-reference client for the ledger
// registry. Implementations: GatewayRegistry (Fabric) and MemoryRegistry
// (dev mode and tests).
type Registry interface {
	// Register creates the record for certificateNumber. It returns
	// model.ErrAlreadyExists when the identifier is taken.
	Register(ctx context.Context, certificateNumber, documentHash string) (*Receipt, error)

	// Lookup returns the stored record, or model.ErrNotFound.
	Lookup(ctx context.Context, certificateNumber string) (*model.DocumentRecord, error)

	// Verify compares candidateHash against the stored fingerprint.
	Verify(ctx context.Context, certificateNumber, candidateHash string) (*Outcome, error)

	// Name identifies the backing implementation for health reporting.
	Name() string

	Close() error
}
