package signature_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/testutil"
)

func TestHTTPSource_RequestSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "owner-1", body["owner_id"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testutil.Signature())
	}))
	defer srv.Close()

	src := signature.NewHTTPSource(srv.URL, signature.WithAPIKey("secret"))
	record, err := src.RequestSignature(context.Background(), "owner-1")
	require.NoError(t, err)

	expected := testutil.Signature()
	assert.Equal(t, expected.SerialNumber, record.SerialNumber)
	assert.Equal(t, expected.TransactionNumber, record.TransactionNumber)
	assert.True(t, expected.StartTime.Equal(record.StartTime))
}

func TestHTTPSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "device offline", http.StatusServiceUnavailable)
			},
			code: signature.ErrCodeDeviceUnavailable,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
			code: signature.ErrCodeDeviceUnavailable,
		},
		{
			name: "incomplete record",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(model.SignatureRecord{SerialNumber: "TSE-1"})
			},
			code: signature.ErrCodeIncompleteRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := signature.NewHTTPSource(srv.URL).RequestSignature(context.Background(), "owner-1")
			require.Error(t, err)

			var sigErr *signature.SignatureError
			require.True(t, errors.As(err, &sigErr))
			assert.Equal(t, tt.code, sigErr.Code)
		})
	}
}

func TestSignatureError_Format(t *testing.T) {
	cause := errors.New("boom")
	err := signature.NewSignatureError(signature.ErrCodeMissingScope, "rsm:Foo", "element not found", cause)

	assert.Equal(t, "[MISSING_SCOPE] rsm:Foo: element not found (boom)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[INCOMPLETE_RECORD] signature: missing in signature record", signature.ErrIncompleteRecord("signature").Error())
}
