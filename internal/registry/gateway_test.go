package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/model"
)

func TestMapContractError(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		code model.ErrorCode
	}{
		{
			"duplicate registration",
			"endorse call failed: RegisterDocument: document with certificate number 'CERT-20260826-0001' already exists",
			model.ErrCodeAlreadyExists,
		},
		{
			"missing record",
			"evaluate call failed: GetDocument: document with certificate number 'CERT-00000000-0000' does not exist",
			model.ErrCodeNotFound,
		},
		{
			"oversized certificate number rejected by contract",
			"evaluate call failed: GetDocument: certificateNumber exceeds max length 64",
			model.ErrCodeValidation,
		},
		{
			"malformed hash rejected by contract",
			"endorse call failed: RegisterDocument: documentHash must be a 64-character hex-encoded SHA-256 digest",
			model.ErrCodeValidation,
		},
		{
			"transport failure",
			"evaluate call failed: rpc error: code = Unavailable desc = connection refused",
			model.ErrCodeRegistryUnavailable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapContractError("Lookup", errors.New(tc.msg))
			coded, ok := model.AsCoded(mapped)
			require.True(t, ok)
			assert.Equal(t, tc.code, coded.Code)
		})
	}
}
