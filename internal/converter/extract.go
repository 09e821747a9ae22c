package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	dec "github.com/rezonia/einvoice/internal/decimal"
	"github.com/rezonia/einvoice/internal/model"
)

// extraction is what a source document yields for the target builder
type extraction struct {
	invoice model.InvoiceRecord
	gaps    []model.ConversionGap
	err     error
}

func (x *extraction) fail(err error) {
	if x.err == nil {
		x.err = err
	}
}

func (x *extraction) gap(field, reason string) {
	x.gaps = append(x.gaps, model.ConversionGap{Field: field, Reason: reason})
}

func (x *extraction) amount(field, s string) decimal.Decimal {
	if s == "" {
		x.fail(model.MissingField(field))
		return decimal.Zero
	}
	d, err := dec.FromString(s)
	if err != nil {
		x.fail(model.NewInputError(field, fmt.Sprintf("not a number: %q", s)))
		return decimal.Zero
	}
	return d
}

func (x *extraction) date(field, s, layout string) time.Time {
	if s == "" {
		x.fail(model.MissingField(field))
		return time.Time{}
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		x.fail(model.NewInputError(field, fmt.Sprintf("not a date: %q", s)))
		return time.Time{}
	}
	return t
}

func extractCII(root *etree.Element) *extraction {
	x := &extraction{}
	inv := &x.invoice

	header := find(root, "ExchangedDocument")
	inv.Number = text(header, "ID")
	inv.IssueDate = x.date("issue_date", text(header, "IssueDateTime", "DateTimeString"), "20060102")
	if len(children(header, "IncludedNote")) > 0 {
		x.gap("notes", "document notes are not carried into UBL")
	}

	if guideline := text(root, "ExchangedDocumentContext", "GuidelineSpecifiedDocumentContextParameter", "ID"); guideline != "" {
		x.gap("guideline", fmt.Sprintf("CII guideline %q replaced by the UBL customization id", guideline))
	}

	tx := find(root, "SupplyChainTradeTransaction")
	if tx == nil {
		x.fail(model.MissingField("rsm:SupplyChainTradeTransaction"))
		return x
	}

	agreement := find(tx, "ApplicableHeaderTradeAgreement")
	inv.BuyerReference = text(agreement, "BuyerReference")
	inv.Company = ciiParty(find(agreement, "SellerTradeParty"))
	inv.Customer = ciiParty(find(agreement, "BuyerTradeParty"))

	if delivery := text(tx, "ApplicableHeaderTradeDelivery", "ActualDeliverySupplyChainEvent", "OccurrenceDateTime", "DateTimeString"); delivery != "" && delivery != inv.IssueDate.Format("20060102") {
		x.gap("delivery_date", "UBL output uses the issue date as delivery date")
	}

	settlement := find(tx, "ApplicableHeaderTradeSettlement")
	inv.PaymentReference = text(settlement, "PaymentReference")
	inv.Currency = text(settlement, "InvoiceCurrencyCode")
	inv.DueDate = x.date("due_date", text(settlement, "SpecifiedTradePaymentTerms", "DueDateDateTime", "DateTimeString"), "20060102")

	taxes := children(settlement, "ApplicableTradeTax")
	switch {
	case len(taxes) == 0:
		x.fail(model.MissingField("tax_rate"))
	case len(taxes) > 1:
		x.fail(model.NewInputError("tax_rate", "more than one tax category is not supported"))
	default:
		inv.TaxRate = x.amount("tax_rate", text(taxes[0], "RateApplicablePercent"))
	}

	summation := find(settlement, "SpecifiedTradeSettlementHeaderMonetarySummation")
	inv.NetAmount = x.amount("net_amount", text(summation, "TaxBasisTotalAmount"))
	inv.TaxAmount = x.amount("tax_amount", text(summation, "TaxTotalAmount"))
	inv.GrossTotal = x.amount("gross_total", text(summation, "GrandTotalAmount"))

	for i, line := range children(tx, "IncludedSupplyChainTradeLineItem") {
		field := fmt.Sprintf("items[%d]", i)
		qty := find(line, "SpecifiedLineTradeDelivery", "BilledQuantity")
		inv.Items = append(inv.Items, model.LineItem{
			Description: text(line, "SpecifiedTradeProduct", "Name"),
			Quantity:    x.amount(field+".quantity", elementText(qty)),
			UnitPrice:   x.amount(field+".unit_price", text(line, "SpecifiedLineTradeAgreement", "NetPriceProductTradePrice", "ChargeAmount")),
			Total:       x.amount(field+".total", text(line, "SpecifiedLineTradeSettlement", "SpecifiedTradeSettlementLineMonetarySummation", "LineTotalAmount")),
			UnitCode:    attr(qty, "unitCode"),
		})
	}

	if len(children(tx, "TSEData")) > 0 {
		x.gap("signature", "fiscal signature blocks are not converted; embed the record again")
	}
	return x
}

func ciiParty(p *etree.Element) model.Party {
	if p == nil {
		return model.Party{}
	}
	addr := find(p, "PostalTradeAddress")
	party := model.Party{
		Name:        text(p, "Name"),
		Address:     joinAddress(text(addr, "LineOne"), text(addr, "PostcodeCode"), text(addr, "CityName")),
		CountryCode: text(addr, "CountryID"),
	}
	for _, reg := range children(p, "SpecifiedTaxRegistration") {
		id := find(reg, "ID")
		if attr(id, "schemeID") == "VA" {
			party.VATID = elementText(id)
		} else {
			party.TaxID = elementText(id)
		}
	}
	return party
}

func extractUBL(root *etree.Element) *extraction {
	x := &extraction{}
	inv := &x.invoice

	inv.Number = text(root, "ID")
	inv.IssueDate = x.date("issue_date", text(root, "IssueDate"), "2006-01-02")
	inv.DueDate = x.date("due_date", text(root, "DueDate"), "2006-01-02")
	inv.Currency = text(root, "DocumentCurrencyCode")
	inv.BuyerReference = text(root, "BuyerReference")

	if id := text(root, "CustomizationID"); id != "" {
		x.gap("customization_id", fmt.Sprintf("UBL customization %q replaced by the CII guideline", id))
	}
	if id := text(root, "ProfileID"); id != "" {
		x.gap("profile_id", "business process type has no CII counterpart")
	}

	inv.Company = ublParty(find(root, "AccountingSupplierParty", "Party"))
	inv.Customer = ublParty(find(root, "AccountingCustomerParty", "Party"))
	if inv.Company.Email != "" || inv.Customer.Email != "" {
		x.gap("contact.email", "party e-mail addresses are not written to CII")
	}

	if means := find(root, "PaymentMeans"); means != nil {
		inv.PaymentReference = text(means, "PaymentID")
		x.gap("payment_means", fmt.Sprintf("payment means code %q is not written to CII", text(means, "PaymentMeansCode")))
	}

	taxTotal := find(root, "TaxTotal")
	inv.TaxAmount = x.amount("tax_amount", text(taxTotal, "TaxAmount"))
	subtotals := children(taxTotal, "TaxSubtotal")
	switch {
	case len(subtotals) == 0:
		x.fail(model.MissingField("tax_rate"))
	case len(subtotals) > 1:
		x.fail(model.NewInputError("tax_rate", "more than one tax category is not supported"))
	default:
		inv.TaxRate = x.amount("tax_rate", text(subtotals[0], "TaxCategory", "Percent"))
	}

	legal := find(root, "LegalMonetaryTotal")
	inv.NetAmount = x.amount("net_amount", text(legal, "TaxExclusiveAmount"))
	inv.GrossTotal = x.amount("gross_total", text(legal, "TaxInclusiveAmount"))

	for i, line := range children(root, "InvoiceLine") {
		field := fmt.Sprintf("items[%d]", i)
		qty := find(line, "InvoicedQuantity")
		inv.Items = append(inv.Items, model.LineItem{
			Description: text(line, "Item", "Name"),
			Quantity:    x.amount(field+".quantity", elementText(qty)),
			UnitPrice:   x.amount(field+".unit_price", text(line, "Price", "PriceAmount")),
			Total:       x.amount(field+".total", text(line, "LineExtensionAmount")),
			UnitCode:    attr(qty, "unitCode"),
		})
	}

	if len(children(root, "Signature")) > 0 {
		x.gap("signature", "fiscal signature blocks are not converted; embed the record again")
	}
	return x
}

func ublParty(p *etree.Element) model.Party {
	if p == nil {
		return model.Party{}
	}
	addr := find(p, "PostalAddress")
	party := model.Party{
		Name:        text(p, "PartyName", "Name"),
		Address:     joinAddress(text(addr, "StreetName"), text(addr, "PostalZone"), text(addr, "CityName")),
		CountryCode: text(addr, "Country", "IdentificationCode"),
		Email:       text(p, "Contact", "ElectronicMail"),
	}
	for _, scheme := range children(p, "PartyTaxScheme") {
		if text(scheme, "TaxScheme", "ID") == "VAT" {
			party.VATID = text(scheme, "CompanyID")
		} else {
			party.TaxID = text(scheme, "CompanyID")
		}
	}
	return party
}

// joinAddress rebuilds the free-text form the address normalizer reads
func joinAddress(street, postalCode, city string) string {
	locality := strings.TrimSpace(postalCode + " " + city)
	switch {
	case street == "":
		return locality
	case locality == "":
		return street
	}
	return street + "\n" + locality
}

// find walks down the element tree by local names
func find(e *etree.Element, path ...string) *etree.Element {
	for _, local := range path {
		if e == nil {
			return nil
		}
		var next *etree.Element
		for _, child := range e.ChildElements() {
			if child.Tag == local {
				next = child
				break
			}
		}
		e = next
	}
	return e
}

func children(e *etree.Element, local string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == local {
			out = append(out, child)
		}
	}
	return out
}

func text(e *etree.Element, path ...string) string {
	return elementText(find(e, path...))
}

func elementText(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text())
}

func attr(e *etree.Element, key string) string {
	if e == nil {
		return ""
	}
	return e.SelectAttrValue(key, "")
}
