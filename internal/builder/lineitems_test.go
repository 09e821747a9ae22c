package builder_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/testutil"
)

func TestSerializeItems_PreservesOrder(t *testing.T) {
	items := testutil.MultiLineInvoice().Items

	for _, tag := range []model.FormatTag{model.FormatCII, model.FormatUBL} {
		t.Run(tag.String(), func(t *testing.T) {
			out, err := builder.SerializeItems(tag, items, "EUR")
			require.NoError(t, err)

			zeta := strings.Index(out, "Zeta")
			alpha := strings.Index(out, "Alpha")
			mid := strings.Index(out, "Mid")
			require.True(t, zeta >= 0 && alpha >= 0 && mid >= 0)
			assert.Less(t, zeta, alpha)
			assert.Less(t, alpha, mid)
		})
	}
}

func TestSerializeItems_CII(t *testing.T) {
	out, err := builder.SerializeItems(model.FormatCII, testutil.MultiLineInvoice().Items, "EUR")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "<ram:IncludedSupplyChainTradeLineItem>"))
	assert.Contains(t, out, "<ram:LineID>1</ram:LineID>")
	assert.Contains(t, out, "<ram:LineID>3</ram:LineID>")
	assert.Contains(t, out, `<ram:BilledQuantity unitCode="HUR">1.50</ram:BilledQuantity>`)
	assert.Contains(t, out, `<ram:BilledQuantity unitCode="C62">4.00</ram:BilledQuantity>`)
	assert.Contains(t, out, "<ram:ChargeAmount>50.00</ram:ChargeAmount>")
	assert.Contains(t, out, "<ram:LineTotalAmount>150.00</ram:LineTotalAmount>")
}

func TestSerializeItems_UBL(t *testing.T) {
	out, err := builder.SerializeItems(model.FormatUBL, testutil.MultiLineInvoice().Items, "CHF")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "<cac:InvoiceLine>"))
	assert.Contains(t, out, "<cbc:ID>2</cbc:ID>")
	assert.Contains(t, out, `<cbc:InvoicedQuantity unitCode="HUR">2.00</cbc:InvoicedQuantity>`)
	assert.Contains(t, out, `<cbc:LineExtensionAmount currencyID="CHF">100.00</cbc:LineExtensionAmount>`)
	assert.Contains(t, out, `<cbc:PriceAmount currencyID="CHF">25.00</cbc:PriceAmount>`)
}

func TestSerializeItems_Empty(t *testing.T) {
	out, err := builder.SerializeItems(model.FormatCII, nil, "EUR")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSerializeItems_UnknownFormat(t *testing.T) {
	_, err := builder.SerializeItems("edi", testutil.Invoice().Items, "EUR")
	require.Error(t, err)
}
