package builder

import (
	"fmt"
	"strings"

	dec "github.com/rezonia/einvoice/internal/decimal"
	"github.com/rezonia/einvoice/internal/model"
)

// SerializeItems renders items into the line block syntax of tag. Lines are
// numbered from 1 in input order; quantities and amounts carry two decimals.
func SerializeItems(tag model.FormatTag, items []model.LineItem, currency string) (string, error) {
	var render func(*strings.Builder, int, model.LineItem, string)
	switch tag {
	case model.FormatCII:
		render = writeCIIItem
	case model.FormatUBL:
		render = writeUBLItem
	default:
		return "", model.NewInputError("format", fmt.Sprintf("no line item syntax for %q", tag))
	}

	var sb strings.Builder
	for i, item := range items {
		render(&sb, i+1, item, currency)
	}
	return sb.String(), nil
}

func writeCIIItem(sb *strings.Builder, line int, item model.LineItem, _ string) {
	fmt.Fprintf(sb, `
    <ram:IncludedSupplyChainTradeLineItem>
      <ram:AssociatedDocumentLineDocument>
        <ram:LineID>%d</ram:LineID>
      </ram:AssociatedDocumentLineDocument>
      <ram:SpecifiedTradeProduct>
        <ram:Name>%s</ram:Name>
      </ram:SpecifiedTradeProduct>
      <ram:SpecifiedLineTradeAgreement>
        <ram:NetPriceProductTradePrice>
          <ram:ChargeAmount>%s</ram:ChargeAmount>
        </ram:NetPriceProductTradePrice>
      </ram:SpecifiedLineTradeAgreement>
      <ram:SpecifiedLineTradeDelivery>
        <ram:BilledQuantity unitCode="%s">%s</ram:BilledQuantity>
      </ram:SpecifiedLineTradeDelivery>
      <ram:SpecifiedLineTradeSettlement>
        <ram:SpecifiedTradeSettlementLineMonetarySummation>
          <ram:LineTotalAmount>%s</ram:LineTotalAmount>
        </ram:SpecifiedTradeSettlementLineMonetarySummation>
      </ram:SpecifiedLineTradeSettlement>
    </ram:IncludedSupplyChainTradeLineItem>`,
		line,
		escape(item.Description),
		dec.Amount(item.UnitPrice),
		escape(item.Unit()), dec.Amount(item.Quantity),
		dec.Amount(item.Total),
	)
}

func writeUBLItem(sb *strings.Builder, line int, item model.LineItem, currency string) {
	cur := escape(currency)
	fmt.Fprintf(sb, `
  <cac:InvoiceLine>
    <cbc:ID>%d</cbc:ID>
    <cbc:InvoicedQuantity unitCode="%s">%s</cbc:InvoicedQuantity>
    <cbc:LineExtensionAmount currencyID="%s">%s</cbc:LineExtensionAmount>
    <cac:Item>
      <cbc:Name>%s</cbc:Name>
    </cac:Item>
    <cac:Price>
      <cbc:PriceAmount currencyID="%s">%s</cbc:PriceAmount>
    </cac:Price>
  </cac:InvoiceLine>`,
		line,
		escape(item.Unit()), dec.Amount(item.Quantity),
		cur, dec.Amount(item.Total),
		escape(item.Description),
		cur, dec.Amount(item.UnitPrice),
	)
}
