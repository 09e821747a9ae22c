package builder

import (
	"text/template"

	"github.com/rezonia/einvoice/internal/model"
)

// CII namespaces
const (
	NamespaceRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NamespaceRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NamespaceQDT = "urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
	NamespaceUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
)

const ciiTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100" xmlns:qdt="urn:un:unece:uncefact:data:standard:QualifiedDataType:100" xmlns:ram="urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100" xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:udt="urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100">
  <rsm:ExchangedDocumentContext>
    <ram:GuidelineSpecifiedDocumentContextParameter>
      <ram:ID>{{x .Guideline}}</ram:ID>
    </ram:GuidelineSpecifiedDocumentContextParameter>
  </rsm:ExchangedDocumentContext>
  <rsm:ExchangedDocument>
    <ram:ID>{{x .Number}}</ram:ID>
    <ram:TypeCode>380</ram:TypeCode>
    <ram:IssueDateTime>
      <udt:DateTimeString format="102">{{.IssueDate}}</udt:DateTimeString>
    </ram:IssueDateTime>
  </rsm:ExchangedDocument>
  <rsm:SupplyChainTradeTransaction>
    <ram:ApplicableHeaderTradeAgreement>
{{- if .BuyerReference}}
      <ram:BuyerReference>{{x .BuyerReference}}</ram:BuyerReference>
{{- end}}
      <ram:SellerTradeParty>
        <ram:Name>{{x .Seller.Name}}</ram:Name>
{{- template "address" .Seller}}
        <ram:SpecifiedTaxRegistration>
          <ram:ID schemeID="{{.Seller.TaxScheme}}">{{x .Seller.TaxID}}</ram:ID>
        </ram:SpecifiedTaxRegistration>
      </ram:SellerTradeParty>
      <ram:BuyerTradeParty>
        <ram:Name>{{x .Buyer.Name}}</ram:Name>
{{- template "address" .Buyer}}
{{- if .Buyer.TaxID}}
        <ram:SpecifiedTaxRegistration>
          <ram:ID schemeID="{{.Buyer.TaxScheme}}">{{x .Buyer.TaxID}}</ram:ID>
        </ram:SpecifiedTaxRegistration>
{{- end}}
      </ram:BuyerTradeParty>
    </ram:ApplicableHeaderTradeAgreement>
    <ram:ApplicableHeaderTradeDelivery>
      <ram:ActualDeliverySupplyChainEvent>
        <ram:OccurrenceDateTime>
          <udt:DateTimeString format="102">{{.IssueDate}}</udt:DateTimeString>
        </ram:OccurrenceDateTime>
      </ram:ActualDeliverySupplyChainEvent>
    </ram:ApplicableHeaderTradeDelivery>
    <ram:ApplicableHeaderTradeSettlement>
      <ram:PaymentReference>{{x .PaymentReference}}</ram:PaymentReference>
      <ram:InvoiceCurrencyCode>{{x .Currency}}</ram:InvoiceCurrencyCode>
      <ram:ApplicableTradeTax>
        <ram:CalculatedAmount>{{.Tax}}</ram:CalculatedAmount>
        <ram:TypeCode>VAT</ram:TypeCode>
        <ram:BasisAmount>{{.Net}}</ram:BasisAmount>
        <ram:CategoryCode>S</ram:CategoryCode>
        <ram:RateApplicablePercent>{{.Rate}}</ram:RateApplicablePercent>
      </ram:ApplicableTradeTax>
      <ram:SpecifiedTradePaymentTerms>
        <ram:DueDateDateTime>
          <udt:DateTimeString format="102">{{.DueDate}}</udt:DateTimeString>
        </ram:DueDateDateTime>
      </ram:SpecifiedTradePaymentTerms>
      <ram:SpecifiedTradeSettlementHeaderMonetarySummation>
        <ram:LineTotalAmount>{{.Net}}</ram:LineTotalAmount>
        <ram:TaxBasisTotalAmount>{{.Net}}</ram:TaxBasisTotalAmount>
        <ram:TaxTotalAmount currencyID="{{x .Currency}}">{{.Tax}}</ram:TaxTotalAmount>
        <ram:GrandTotalAmount>{{.Gross}}</ram:GrandTotalAmount>
        <ram:TotalPrepaidAmount>0.00</ram:TotalPrepaidAmount>
        <ram:DuePayableAmount>{{.Gross}}</ram:DuePayableAmount>
      </ram:SpecifiedTradeSettlementHeaderMonetarySummation>
    </ram:ApplicableHeaderTradeSettlement>{{.Items}}
  </rsm:SupplyChainTradeTransaction>
</rsm:CrossIndustryInvoice>
{{define "address"}}
        <ram:PostalTradeAddress>
{{- if .PostalCode}}
          <ram:PostcodeCode>{{.PostalCode}}</ram:PostcodeCode>
{{- end}}
{{- if .Street}}
          <ram:LineOne>{{x .Street}}</ram:LineOne>
{{- end}}
{{- if .City}}
          <ram:CityName>{{x .City}}</ram:CityName>
{{- end}}
          <ram:CountryID>{{x .Country}}</ram:CountryID>
        </ram:PostalTradeAddress>
{{- end}}`

// CIIBuilder emits Cross-Industry-Invoice documents (ZUGFeRD / Factur-X)
type CIIBuilder struct {
	tmpl *template.Template
}

// NewCIIBuilder creates a CII builder
func NewCIIBuilder() *CIIBuilder {
	return &CIIBuilder{
		tmpl: template.Must(template.New("cii").Funcs(funcs).Parse(ciiTemplate)),
	}
}

// Format returns model.FormatCII
func (b *CIIBuilder) Format() model.FormatTag {
	return model.FormatCII
}

// Build renders a CII document
func (b *CIIBuilder) Build(inv model.InvoiceRecord, meta model.FormatMetadata, company model.Party) (string, error) {
	var m model.CIIMetadata
	switch v := meta.(type) {
	case model.CIIMetadata:
		m = v
	case *model.CIIMetadata:
		if v != nil {
			m = *v
		}
	case model.UBLMetadata, *model.UBLMetadata:
		return "", model.NewInputError("metadata", "UBL metadata passed to the CII builder")
	case nil:
	}

	seller := sellerOf(inv, company)
	if err := checkRecord(inv, seller); err != nil {
		return "", err
	}

	items, err := SerializeItems(model.FormatCII, inv.Items, inv.CurrencyCode())
	if err != nil {
		return "", err
	}

	view := newDocumentView(inv, seller, layoutCII)
	view.Guideline = m.Guideline()
	view.Items = items

	return render(b.tmpl, view)
}
