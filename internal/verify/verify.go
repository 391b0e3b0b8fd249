// Package verify reconciles a claimed certificate/fingerprint pair against
// the ledger registry and assembles the caller-facing verdict. Every verdict
// is computed fresh; nothing is cached.
package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"docproof/internal/digest"
	"docproof/internal/registry"
	"docproof/internal/stamper"
	"docproof/model"
)

const (
	msgValid        = "Document is valid. The fingerprint matches the ledger record."
	msgHashMismatch = "Document hash does not match the fingerprint registered for this certificate."
	msgNotFound     = "Certificate not found in the registry."
)

// Reconciler owns the single reconciliation core behind every verification
// entry point.
type Reconciler struct {
	reg registry.Registry
	log *logrus.Entry
}

func New(reg registry.Registry, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		reg: reg,
		log: log.WithField("component", "verify"),
	}
}

// ByHash verifies an explicitly supplied certificate number and fingerprint.
func (r *Reconciler) ByHash(ctx context.Context, certificateNumber, documentHash string) (*model.Verdict, error) {
	certificateNumber = strings.TrimSpace(certificateNumber)
	documentHash = strings.ToLower(strings.TrimSpace(documentHash))
	if certificateNumber == "" {
		return nil, model.NewError(model.ErrCodeValidation, "certificateNumber is required")
	}
	if !digest.Valid(documentHash) {
		return nil, model.NewError(model.ErrCodeValidation, "documentHash must be a 64-character hex SHA-256 digest")
	}

	outcome, err := r.reg.Verify(ctx, certificateNumber, documentHash)
	if err != nil {
		return nil, err
	}

	verdict := &model.Verdict{
		IsValid:           outcome.Matches,
		CertificateNumber: certificateNumber,
		ProvidedHash:      documentHash,
		Timestamp:         outcome.Timestamp,
	}
	if outcome.Timestamp > 0 {
		verdict.RegistrationDate = time.Unix(outcome.Timestamp, 0).UTC().Format(time.RFC3339)
	}

	if outcome.Matches {
		verdict.RegisteredHash = documentHash
		verdict.Message = msgValid
		return verdict, nil
	}

	// The registry collapses "unknown certificate" and "wrong hash" into
	// matches=false; a separate lookup splits them for the caller.
	record, err := r.reg.Lookup(ctx, certificateNumber)
	switch {
	case err == nil:
		verdict.RegisteredHash = record.DocumentHash
		verdict.Message = msgHashMismatch
	case errors.Is(err, model.ErrNotFound):
		verdict.Message = msgNotFound
	default:
		return nil, err
	}
	return verdict, nil
}

// ByFile verifies a re-uploaded original document: the fingerprint is
// recomputed from the uploaded bytes and reconciled against the registry.
func (r *Reconciler) ByFile(ctx context.Context, certificateNumber string, data []byte) (*model.Verdict, error) {
	return r.ByHash(ctx, certificateNumber, digest.Bytes(data))
}

// ByStampedArtifact verifies a re-uploaded stamped copy. The embedded payload
// is extracted to recover the registered pair; the reconciliation then checks
// that the embedded claim still matches the ledger, which detects artifacts
// whose embedded payload was altered without altering the ledger.
func (r *Reconciler) ByStampedArtifact(ctx context.Context, data []byte) (*model.Verdict, error) {
	certificateNumber, documentHash, err := stamper.ExtractPayload(data)
	if err != nil {
		return nil, err
	}
	r.log.WithField("certificateNumber", certificateNumber).Debug("payload extracted from stamped artifact")
	return r.ByHash(ctx, certificateNumber, documentHash)
}

// ByQRData verifies a payload string scanned from a QR code.
func (r *Reconciler) ByQRData(ctx context.Context, qrData string) (*model.Verdict, error) {
	certificateNumber, documentHash, err := stamper.ParsePayload(qrData)
	if err != nil {
		return nil, err
	}
	return r.ByHash(ctx, certificateNumber, documentHash)
}
