package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/testutil"
	"github.com/rezonia/einvoice/internal/validator"
)

func buildDoc(t *testing.T, tag model.FormatTag, inv model.InvoiceRecord) string {
	t.Helper()
	var meta model.FormatMetadata = testutil.CIIMetadata()
	if tag == model.FormatUBL {
		meta = testutil.UBLMetadata()
	}
	doc, err := builder.NewRegistry().Build(inv, meta, testutil.Company())
	require.NoError(t, err)
	return doc
}

func TestValidate_BuilderOutputIsValid(t *testing.T) {
	invoices := map[string]model.InvoiceRecord{
		"single line": testutil.Invoice(),
		"multi line":  testutil.MultiLineInvoice(),
	}

	for _, tag := range []model.FormatTag{model.FormatCII, model.FormatUBL} {
		for name, inv := range invoices {
			t.Run(tag.String()+"/"+name, func(t *testing.T) {
				result := validator.Validate(buildDoc(t, tag, inv), tag)
				assert.True(t, result.Valid)
				assert.Empty(t, result.Errors)
				assert.Empty(t, result.Warnings)
			})
		}
	}
}

func TestValidate_EmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "   ", "\n\t "} {
		result := validator.Validate(doc, model.FormatCII)
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
		assert.Empty(t, result.Warnings)
	}
}

func TestValidate_MarkerCoverage(t *testing.T) {
	markers := map[model.FormatTag][]string{
		model.FormatCII: validator.CIIMarkers,
		model.FormatUBL: validator.UBLMarkers,
	}

	for tag, list := range markers {
		doc := buildDoc(t, tag, testutil.Invoice())
		for _, marker := range list {
			t.Run(tag.String()+"/"+marker, func(t *testing.T) {
				broken := strings.ReplaceAll(doc, marker, "Removed")
				require.NotContains(t, broken, marker)

				result := validator.Validate(broken, tag)
				assert.False(t, result.Valid)
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], marker)
			})
		}
	}
}

func TestValidate_GuidelineWarning(t *testing.T) {
	doc := buildDoc(t, model.FormatCII, testutil.Invoice())
	doc = strings.ReplaceAll(doc, "GuidelineSpecifiedDocumentContextParameter", "OtherParameter")

	result := validator.Validate(doc, model.FormatCII)
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 1)
}

func TestValidate_TotalsMismatchIsWarning(t *testing.T) {
	doc := buildDoc(t, model.FormatUBL, testutil.Invoice())
	doc = strings.Replace(doc,
		`<cbc:TaxInclusiveAmount currencyID="EUR">119.00</cbc:TaxInclusiveAmount>`,
		`<cbc:TaxInclusiveAmount currencyID="EUR">120.00</cbc:TaxInclusiveAmount>`, 1)

	result := validator.Validate(doc, model.FormatUBL)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "120.00")

	strict := result.Strict()
	assert.False(t, strict.Valid)
	assert.Len(t, strict.Errors, 1)
	assert.Empty(t, strict.Warnings)
}

func TestValidate_MalformedIsWarning(t *testing.T) {
	doc := buildDoc(t, model.FormatCII, testutil.Invoice())
	doc = strings.TrimSuffix(strings.TrimSpace(doc), "</rsm:CrossIndustryInvoice>")

	result := validator.Validate(doc, model.FormatCII)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "well-formed")
}

func TestValidate_UnknownFormat(t *testing.T) {
	result := validator.Validate("<x/>", "edi")
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 1)
}

func TestDetectFormat(t *testing.T) {
	tag, err := validator.DetectFormat(buildDoc(t, model.FormatCII, testutil.Invoice()))
	require.NoError(t, err)
	assert.Equal(t, model.FormatCII, tag)

	tag, err = validator.DetectFormat(buildDoc(t, model.FormatUBL, testutil.Invoice()))
	require.NoError(t, err)
	assert.Equal(t, model.FormatUBL, tag)

	_, err = validator.DetectFormat("<Order/>")
	require.Error(t, err)

	_, err = validator.DetectFormat("not xml")
	require.Error(t, err)
}
