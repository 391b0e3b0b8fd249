package certid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewShape(t *testing.T) {
	id := New()
	assert.True(t, Valid(id), "generated id %q must match CERT-\\d{8}-\\d{4}", id)
	assert.True(t, strings.HasPrefix(id, "CERT-"))
}

func TestNewAtUsesUTCDate(t *testing.T) {
	at := time.Date(2026, 8, 26, 23, 30, 0, 0, time.FixedZone("ahead", 5*3600))
	id := NewAt(at)
	assert.True(t, Valid(id))
	assert.Equal(t, "20260826", strings.Split(id, "-")[1])
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("CERT-20260826-0001"))
	assert.False(t, Valid("CERT-20260826-001"))
	assert.False(t, Valid("CERT-2026826-0001"))
	assert.False(t, Valid("cert-20260826-0001"))
	assert.False(t, Valid("CERT-20260826-0001x"))
	assert.False(t, Valid(""))
}
