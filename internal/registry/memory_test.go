package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/model"
)

const memTestHash = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

func TestMemoryRegisterAndVerify(t *testing.T) {
	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	reg := NewMemoryAt(func() time.Time { return at })
	ctx := context.Background()

	receipt, err := reg.Register(ctx, "CERT-20260826-0001", memTestHash)
	require.NoError(t, err)
	assert.Equal(t, at.Unix(), receipt.Timestamp)
	assert.NotEmpty(t, receipt.TxID)

	outcome, err := reg.Verify(ctx, "CERT-20260826-0001", memTestHash)
	require.NoError(t, err)
	assert.True(t, outcome.Matches)
	assert.Equal(t, receipt.Timestamp, outcome.Timestamp)
}

func TestMemoryDuplicateRegistration(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	_, err := reg.Register(ctx, "CERT-20260826-0002", memTestHash)
	require.NoError(t, err)

	_, err = reg.Register(ctx, "CERT-20260826-0002", memTestHash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))
}

func TestMemoryVerifyWrongHashDisclosesTimestamp(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	receipt, err := reg.Register(ctx, "CERT-20260826-0003", memTestHash)
	require.NoError(t, err)

	wrong := "b" + memTestHash[1:]
	outcome, err := reg.Verify(ctx, "CERT-20260826-0003", wrong)
	require.NoError(t, err)
	assert.False(t, outcome.Matches)
	assert.Equal(t, receipt.Timestamp, outcome.Timestamp)
}

func TestMemoryVerifyUnknownCertificate(t *testing.T) {
	reg := NewMemory()

	outcome, err := reg.Verify(context.Background(), "CERT-00000000-0000", memTestHash)
	require.NoError(t, err)
	assert.False(t, outcome.Matches)
	assert.Equal(t, int64(0), outcome.Timestamp)
}

func TestMemoryLookup(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()

	_, err := reg.Lookup(ctx, "CERT-00000000-0000")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = reg.Register(ctx, "CERT-20260826-0004", memTestHash)
	require.NoError(t, err)

	record, err := reg.Lookup(ctx, "CERT-20260826-0004")
	require.NoError(t, err)
	assert.Equal(t, memTestHash, record.DocumentHash)
}

func TestMemoryRespectsContextCancellation(t *testing.T) {
	reg := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Register(ctx, "CERT-20260826-0005", memTestHash)
	assert.Error(t, err)
}
