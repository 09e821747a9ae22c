package builder

import (
	"text/template"

	"github.com/rezonia/einvoice/internal/model"
)

// UBL namespaces
const (
	NamespaceUBLInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceCAC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceCBC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

const ublTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:CustomizationID>{{x .Customization}}</cbc:CustomizationID>
  <cbc:ProfileID>{{x .Profile}}</cbc:ProfileID>
  <cbc:ID>{{x .Number}}</cbc:ID>
  <cbc:IssueDate>{{.IssueDate}}</cbc:IssueDate>
  <cbc:DueDate>{{.DueDate}}</cbc:DueDate>
  <cbc:InvoiceTypeCode>380</cbc:InvoiceTypeCode>
  <cbc:DocumentCurrencyCode>{{x .Currency}}</cbc:DocumentCurrencyCode>
  <cbc:BuyerReference>{{x .BuyerReference}}</cbc:BuyerReference>
  <cac:AccountingSupplierParty>
    <cac:Party>
{{- template "party" .Seller}}
    </cac:Party>
  </cac:AccountingSupplierParty>
  <cac:AccountingCustomerParty>
    <cac:Party>
{{- template "party" .Buyer}}
    </cac:Party>
  </cac:AccountingCustomerParty>
  <cac:PaymentMeans>
    <cbc:PaymentMeansCode>58</cbc:PaymentMeansCode>
    <cbc:PaymentID>{{x .PaymentReference}}</cbc:PaymentID>
  </cac:PaymentMeans>
  <cac:TaxTotal>
    <cbc:TaxAmount currencyID="{{x .Currency}}">{{.Tax}}</cbc:TaxAmount>
    <cac:TaxSubtotal>
      <cbc:TaxableAmount currencyID="{{x .Currency}}">{{.Net}}</cbc:TaxableAmount>
      <cbc:TaxAmount currencyID="{{x .Currency}}">{{.Tax}}</cbc:TaxAmount>
      <cac:TaxCategory>
        <cbc:ID>S</cbc:ID>
        <cbc:Percent>{{.Rate}}</cbc:Percent>
        <cac:TaxScheme>
          <cbc:ID>VAT</cbc:ID>
        </cac:TaxScheme>
      </cac:TaxCategory>
    </cac:TaxSubtotal>
  </cac:TaxTotal>
  <cac:LegalMonetaryTotal>
    <cbc:LineExtensionAmount currencyID="{{x .Currency}}">{{.Net}}</cbc:LineExtensionAmount>
    <cbc:TaxExclusiveAmount currencyID="{{x .Currency}}">{{.Net}}</cbc:TaxExclusiveAmount>
    <cbc:TaxInclusiveAmount currencyID="{{x .Currency}}">{{.Gross}}</cbc:TaxInclusiveAmount>
    <cbc:PayableAmount currencyID="{{x .Currency}}">{{.Gross}}</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>{{.Items}}
</Invoice>
{{define "party"}}
      <cac:PartyName>
        <cbc:Name>{{x .Name}}</cbc:Name>
      </cac:PartyName>
      <cac:PostalAddress>
{{- if .Street}}
        <cbc:StreetName>{{x .Street}}</cbc:StreetName>
{{- end}}
{{- if .City}}
        <cbc:CityName>{{x .City}}</cbc:CityName>
{{- end}}
{{- if .PostalCode}}
        <cbc:PostalZone>{{.PostalCode}}</cbc:PostalZone>
{{- end}}
        <cac:Country>
          <cbc:IdentificationCode>{{x .Country}}</cbc:IdentificationCode>
        </cac:Country>
      </cac:PostalAddress>
{{- if .TaxID}}
      <cac:PartyTaxScheme>
        <cbc:CompanyID>{{x .TaxID}}</cbc:CompanyID>
        <cac:TaxScheme>
          <cbc:ID>{{if eq .TaxScheme "VA"}}VAT{{else}}FC{{end}}</cbc:ID>
        </cac:TaxScheme>
      </cac:PartyTaxScheme>
{{- end}}
{{- if .Email}}
      <cac:Contact>
        <cbc:ElectronicMail>{{x .Email}}</cbc:ElectronicMail>
      </cac:Contact>
{{- end}}
{{- end}}`

// UBLBuilder emits UBL 2.1 invoices (XRechnung)
type UBLBuilder struct {
	tmpl *template.Template
}

// NewUBLBuilder creates a UBL builder
func NewUBLBuilder() *UBLBuilder {
	return &UBLBuilder{
		tmpl: template.Must(template.New("ubl").Funcs(funcs).Parse(ublTemplate)),
	}
}

// Format returns model.FormatUBL
func (b *UBLBuilder) Format() model.FormatTag {
	return model.FormatUBL
}

// Build renders a UBL document
func (b *UBLBuilder) Build(inv model.InvoiceRecord, meta model.FormatMetadata, company model.Party) (string, error) {
	var m model.UBLMetadata
	switch v := meta.(type) {
	case model.UBLMetadata:
		m = v
	case *model.UBLMetadata:
		if v != nil {
			m = *v
		}
	case model.CIIMetadata, *model.CIIMetadata:
		return "", model.NewInputError("metadata", "CII metadata passed to the UBL builder")
	case nil:
	}

	seller := sellerOf(inv, company)
	if err := checkRecord(inv, seller); err != nil {
		return "", err
	}

	buyerRef := m.Reference()
	if buyerRef == "" {
		buyerRef = inv.BuyerReference
	}
	if buyerRef == "" {
		return "", model.MissingField("metadata.buyer_reference")
	}

	items, err := SerializeItems(model.FormatUBL, inv.Items, inv.CurrencyCode())
	if err != nil {
		return "", err
	}

	view := newDocumentView(inv, seller, layoutUBL)
	view.BuyerReference = buyerRef
	view.Customization = m.Customization()
	view.Profile = m.Profile()
	view.Items = items

	return render(b.tmpl, view)
}
