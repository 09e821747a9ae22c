package compliance

import (
	"strings"

	"github.com/beevik/etree"
)

// Statutory compliance levels
const (
	ComplianceFull         = "full"
	CompliancePartial      = "partial"
	ComplianceNonCompliant = "non_compliant"
)

// CheckedFields lists the statutory invoice contents (UStG §14 Abs. 4)
type CheckedFields struct {
	SequentialNumber  bool `json:"has_sequential_number"`
	IssueDate         bool `json:"has_issue_date"`
	SellerData        bool `json:"has_seller_data"`
	BuyerData         bool `json:"has_buyer_data"`
	ValidTax          bool `json:"has_valid_tax"`
	PaymentTerms      bool `json:"has_payment_terms"`
	StructuredFormat  bool `json:"is_structured_format"`
	EnablesProcessing bool `json:"enables_processing"`
}

// DocumentCheck is the result of CheckDocument
type DocumentCheck struct {
	Compliant bool          `json:"is_compliant"`
	Fields    CheckedFields `json:"checked_fields"`
	Errors    []string      `json:"errors"`
	Warnings  []string      `json:"warnings"`
	Level     string        `json:"compliance_level"`
}

const plainTextMarker = "<!-- Plain text or image only -->"

// CheckDocument checks a serialized invoice for the contents German VAT law
// requires. Missing payment terms are a warning; everything else is an error.
func CheckDocument(doc string) *DocumentCheck {
	c := &DocumentCheck{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	if err := etree.NewDocument().ReadFromString(doc); err != nil || strings.TrimSpace(doc) == "" {
		c.Errors = append(c.Errors, "XML-Format ist ungültig")
		c.Level = ComplianceNonCompliant
		return c
	}

	has := func(markers ...string) bool {
		for _, m := range markers {
			if strings.Contains(doc, m) {
				return true
			}
		}
		return false
	}

	f := &c.Fields
	f.StructuredFormat = has("CrossIndustryInvoice", "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2")
	f.EnablesProcessing = f.StructuredFormat && !strings.Contains(doc, plainTextMarker)
	f.SequentialNumber = has("<ram:ID>", "<cbc:ID>")
	f.IssueDate = has("<ram:IssueDateTime>", "<cbc:IssueDate>")
	f.SellerData = has("<ram:SellerTradeParty>", "<cac:AccountingSupplierParty>") &&
		has("<ram:Name>", "<cbc:Name>") &&
		has("<ram:SpecifiedTaxRegistration>", "<cac:PartyTaxScheme>")
	f.BuyerData = has("<ram:BuyerTradeParty>", "<cac:AccountingCustomerParty>") &&
		has("<ram:Name>", "<cbc:Name>")
	f.ValidTax = has("<ram:TypeCode>VAT</ram:TypeCode>", "<cac:TaxScheme>") &&
		has("<ram:CalculatedAmount>", "<ram:TaxTotalAmount", "<cbc:TaxAmount") &&
		has("<ram:RateApplicablePercent>", "<cbc:Percent>") &&
		has("<ram:CategoryCode>", "<cac:TaxCategory>") &&
		has("<ram:BasisAmount>", "<ram:TaxBasisTotalAmount>", "<cbc:TaxableAmount")
	f.PaymentTerms = has("<ram:SpecifiedTradePaymentTerms>", "<cac:PaymentTerms>", "<ram:DueDateDateTime>", "<cbc:DueDate>")

	fail := func(ok bool, msg string) {
		if !ok {
			c.Errors = append(c.Errors, msg)
		}
	}
	fail(f.StructuredFormat, "Kein strukturiertes elektronisches Format gemäß EN 16931")
	fail(f.EnablesProcessing, "Format ermöglicht keine elektronische Verarbeitung")
	fail(f.SequentialNumber, "Fortlaufende Rechnungsnummer fehlt")
	fail(f.IssueDate, "Ausstellungsdatum fehlt")
	fail(f.SellerData, "Vollständige Aussteller-Daten fehlen (Name, Anschrift, Steuernummer/USt-IdNr.)")
	fail(f.BuyerData, "Vollständige Empfänger-Daten fehlen")
	fail(f.ValidTax, "Steuerangaben sind unvollständig oder fehlerhaft")
	if !f.PaymentTerms {
		c.Warnings = append(c.Warnings, "Zahlungsbedingungen nicht angegeben")
	}

	c.Compliant = len(c.Errors) == 0
	c.Level = complianceLevel(len(c.Errors), len(c.Warnings))
	return c
}

func complianceLevel(errors, warnings int) string {
	switch {
	case errors == 0:
		return ComplianceFull
	case errors <= 2 && warnings <= 5:
		return CompliancePartial
	}
	return ComplianceNonCompliant
}
