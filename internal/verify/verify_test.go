package verify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/internal/digest"
	"docproof/internal/registry"
	"docproof/internal/stamper"
	"docproof/model"
)

func newTestReconciler(t *testing.T) (*Reconciler, *registry.MemoryRegistry) {
	t.Helper()
	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	reg := registry.NewMemoryAt(func() time.Time { return at })
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return New(reg, log), reg
}

func TestByHashValid(t *testing.T) {
	r, reg := newTestReconciler(t)
	ctx := context.Background()
	data := []byte("original document")
	hash := digest.Bytes(data)

	receipt, err := reg.Register(ctx, "CERT-20260826-0001", hash)
	require.NoError(t, err)

	verdict, err := r.ByHash(ctx, "CERT-20260826-0001", hash)
	require.NoError(t, err)
	assert.True(t, verdict.IsValid)
	assert.Equal(t, hash, verdict.RegisteredHash)
	assert.Equal(t, hash, verdict.ProvidedHash)
	assert.Equal(t, receipt.Timestamp, verdict.Timestamp)
	assert.NotEmpty(t, verdict.RegistrationDate)
	assert.Contains(t, verdict.Message, "valid")
}

func TestByHashMismatchDistinguishedFromNotFound(t *testing.T) {
	r, reg := newTestReconciler(t)
	ctx := context.Background()
	hash := digest.Bytes([]byte("original"))
	wrong := digest.Bytes([]byte("tampered"))

	_, err := reg.Register(ctx, "CERT-20260826-0002", hash)
	require.NoError(t, err)

	mismatch, err := r.ByHash(ctx, "CERT-20260826-0002", wrong)
	require.NoError(t, err)
	assert.False(t, mismatch.IsValid)
	assert.Equal(t, hash, mismatch.RegisteredHash)
	assert.Contains(t, mismatch.Message, "does not match")
	assert.Greater(t, mismatch.Timestamp, int64(0), "mismatch still discloses the registration time")

	missing, err := r.ByHash(ctx, "CERT-00000000-0000", wrong)
	require.NoError(t, err)
	assert.False(t, missing.IsValid)
	assert.Empty(t, missing.RegisteredHash)
	assert.Contains(t, missing.Message, "not found")
	assert.Equal(t, int64(0), missing.Timestamp)
	assert.Empty(t, missing.RegistrationDate)
}

func TestByHashValidation(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	_, err := r.ByHash(ctx, "", digest.Bytes(nil))
	assert.Error(t, err)

	_, err = r.ByHash(ctx, "CERT-20260826-0003", "nothex")
	assert.Error(t, err)
}

func TestByFileRecomputesFingerprint(t *testing.T) {
	r, reg := newTestReconciler(t)
	ctx := context.Background()
	data := []byte("the original bytes")

	_, err := reg.Register(ctx, "CERT-20260826-0004", digest.Bytes(data))
	require.NoError(t, err)

	verdict, err := r.ByFile(ctx, "CERT-20260826-0004", data)
	require.NoError(t, err)
	assert.True(t, verdict.IsValid)

	verdict, err = r.ByFile(ctx, "CERT-20260826-0004", append(data, '!'))
	require.NoError(t, err)
	assert.False(t, verdict.IsValid)
}

func TestByStampedArtifact(t *testing.T) {
	r, reg := newTestReconciler(t)
	ctx := context.Background()
	hash := digest.Bytes([]byte("the original bytes"))

	_, err := reg.Register(ctx, "CERT-20260826-0005", hash)
	require.NoError(t, err)

	payload := stamper.BuildPayload("CERT-20260826-0005", hash)
	artifact := []byte("original content\n" + payload + "\n")

	verdict, err := r.ByStampedArtifact(ctx, artifact)
	require.NoError(t, err)
	assert.True(t, verdict.IsValid)

	// An attacker who edits the embedded hash without touching the ledger is
	// caught by the reconciliation.
	tampered := []byte(strings.Replace(string(artifact), hash[:8], "deadbeef", 1))
	verdict, err = r.ByStampedArtifact(ctx, tampered)
	require.NoError(t, err)
	assert.False(t, verdict.IsValid)

	// No payload at all.
	_, err = r.ByStampedArtifact(ctx, []byte("nothing embedded here"))
	require.Error(t, err)
	coded, ok := model.AsCoded(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNoCertificateFound, coded.Code)
}

func TestByQRData(t *testing.T) {
	r, reg := newTestReconciler(t)
	ctx := context.Background()
	hash := digest.Bytes([]byte("qr flow"))

	_, err := reg.Register(ctx, "CERT-20260826-0006", hash)
	require.NoError(t, err)

	verdict, err := r.ByQRData(ctx, stamper.BuildPayload("CERT-20260826-0006", hash))
	require.NoError(t, err)
	assert.True(t, verdict.IsValid)

	_, err = r.ByQRData(ctx, "DOCPROOF|1|garbled")
	require.Error(t, err)
	coded, ok := model.AsCoded(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeInvalidCertificateData, coded.Code)
}
