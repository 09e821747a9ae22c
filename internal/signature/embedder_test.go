package signature_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/testutil"
	"github.com/rezonia/einvoice/internal/validator"
)

func TestEmbed_CII(t *testing.T) {
	doc, err := builder.NewCIIBuilder().Build(testutil.Invoice(), testutil.CIIMetadata(), testutil.Company())
	require.NoError(t, err)

	signed, err := signature.Embed(doc, testutil.Signature())
	require.NoError(t, err)

	assert.Contains(t, signed, "<ram:TSEData>")
	assert.Contains(t, signed, "<ram:SerialNumber>TSE-0001</ram:SerialNumber>")
	assert.Contains(t, signed, "<ram:TransactionNumber>4711</ram:TransactionNumber>")
	assert.Contains(t, signed, "<ram:StartTime>2025-03-14T09:30:00Z</ram:StartTime>")
	assert.Contains(t, signed, "<ram:FinishTime>2025-03-14T09:30:02Z</ram:FinishTime>")
	assert.Contains(t, signed, "<ram:CertificateSerial>CERT-42</ram:CertificateSerial>")
	assert.Contains(t, signed, "<ram:Content>TSE: TSE-0001</ram:Content>")
	assert.Contains(t, signed, "<ram:SubjectCode>TSE</ram:SubjectCode>")

	// the block sits inside the trade transaction
	assert.Less(t, strings.Index(signed, "<rsm:SupplyChainTradeTransaction>"), strings.Index(signed, "<ram:TSEData>"))
	assert.Less(t, strings.Index(signed, "<ram:TSEData>"), strings.Index(signed, "</rsm:SupplyChainTradeTransaction>"))

	result := validator.Validate(signed, model.FormatCII)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestEmbed_UBL(t *testing.T) {
	doc, err := builder.NewUBLBuilder().Build(testutil.Invoice(), testutil.UBLMetadata(), testutil.Company())
	require.NoError(t, err)

	signed, err := signature.Embed(doc, testutil.Signature())
	require.NoError(t, err)

	assert.Contains(t, signed, "<cac:Signature>")
	assert.Contains(t, signed, "<cbc:SignatureMethod>ecdsa-plain-SHA256</cbc:SignatureMethod>")
	assert.Less(t, strings.Index(signed, "<cac:Signature>"), strings.Index(signed, "<cac:AccountingSupplierParty>"))

	result := validator.Validate(signed, model.FormatUBL)
	assert.True(t, result.Valid)
}

func TestEmbed_NotIdempotent(t *testing.T) {
	doc, err := builder.NewCIIBuilder().Build(testutil.Invoice(), testutil.CIIMetadata(), testutil.Company())
	require.NoError(t, err)

	once, err := signature.Embed(doc, testutil.Signature())
	require.NoError(t, err)
	twice, err := signature.Embed(once, testutil.Signature())
	require.NoError(t, err)

	n, err := signature.Count(doc)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = signature.Count(once)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = signature.Count(twice)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"malformed", "<rsm:CrossIndustryInvoice><unclosed>", signature.ErrCodeMalformedDocument},
		{"empty", "", signature.ErrCodeMalformedDocument},
		{"unknown root", "<Order/>", signature.ErrCodeUnsupportedFormat},
		{"no transaction", `<rsm:CrossIndustryInvoice xmlns:rsm="x"/>`, signature.ErrCodeMissingScope},
		{"no supplier", `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"/>`, signature.ErrCodeMissingScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := signature.Embed(tt.doc, testutil.Signature())
			require.Error(t, err)
			assert.Empty(t, out)

			var sigErr *signature.SignatureError
			require.True(t, errors.As(err, &sigErr))
			assert.Equal(t, tt.code, sigErr.Code)
		})
	}
}
