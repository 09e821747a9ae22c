// Package validator is the fast structural gate for generated documents.
//
// It checks for the presence of mandatory elements by marker and re-parses
// the document on its own to look for shape problems. It is not a schema
// validator: documents must still pass the official validator of the target
// standard before a legally binding transmission.
package validator

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	dec "github.com/rezonia/einvoice/internal/decimal"
	"github.com/rezonia/einvoice/internal/model"
)

// Mandatory markers, in reporting order
var (
	CIIMarkers = []string{
		"CrossIndustryInvoice",
		"ram:ID",
		"ram:TypeCode",
		"ram:IssueDateTime",
		"ram:InvoiceCurrencyCode",
		"ram:SellerTradeParty",
		"ram:BuyerTradeParty",
	}

	UBLMarkers = []string{
		"cbc:ID",
		"cbc:IssueDate",
		"cbc:InvoiceTypeCode",
		"cbc:DocumentCurrencyCode",
		"cac:AccountingSupplierParty",
		"cac:AccountingCustomerParty",
	}
)

const (
	ciiGuidelineMarker = "GuidelineSpecifiedDocumentContextParameter"
	ublNamespace       = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
)

// Validate checks doc against the marker list of tag. Findings are
// returned as data; Validate never fails.
func Validate(doc string, tag model.FormatTag) *Result {
	result := NewResult(tag)

	if strings.TrimSpace(doc) == "" {
		result.AddError("document is empty")
		return result
	}

	switch tag {
	case model.FormatCII:
		checkMarkers(result, doc, CIIMarkers)
		if !strings.Contains(doc, ciiGuidelineMarker) {
			result.AddWarning("guideline context (" + ciiGuidelineMarker + ") is missing")
		}
	case model.FormatUBL:
		checkMarkers(result, doc, UBLMarkers)
		if !strings.Contains(doc, ublNamespace) {
			result.AddWarning("UBL invoice namespace is not declared")
		}
	default:
		result.AddError(fmt.Sprintf("unsupported format: %q", tag))
		return result
	}

	inspectTree(result, doc, tag)
	return result
}

func checkMarkers(result *Result, doc string, markers []string) {
	for _, marker := range markers {
		if !strings.Contains(doc, marker) {
			result.AddError("missing mandatory element: " + marker)
		}
	}
}

// inspectTree re-parses doc and reports shape problems as warnings
func inspectTree(result *Result, doc string, tag model.FormatTag) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(doc); err != nil {
		result.AddWarning(fmt.Sprintf("document is not well-formed: %v", err))
		return
	}
	root := tree.Root()
	if root == nil {
		result.AddWarning("document has no root element")
		return
	}

	switch tag {
	case model.FormatCII:
		summation := findElement(root, "SpecifiedTradeSettlementHeaderMonetarySummation")
		if summation == nil {
			result.AddWarning("monetary summation is missing")
			return
		}
		checkTotals(result,
			childText(summation, "TaxBasisTotalAmount"),
			childText(summation, "TaxTotalAmount"),
			childText(summation, "GrandTotalAmount"))
	case model.FormatUBL:
		total := findElement(root, "LegalMonetaryTotal")
		taxTotal := findElement(root, "TaxTotal")
		if total == nil || taxTotal == nil {
			result.AddWarning("legal monetary total or tax total is missing")
			return
		}
		checkTotals(result,
			childText(total, "TaxExclusiveAmount"),
			childText(taxTotal, "TaxAmount"),
			childText(total, "TaxInclusiveAmount"))
	}
}

func checkTotals(result *Result, basis, tax, grand string) {
	b, errB := decimal.NewFromString(basis)
	t, errT := decimal.NewFromString(tax)
	g, errG := decimal.NewFromString(grand)
	if errB != nil || errT != nil || errG != nil {
		result.AddWarning("monetary totals are not numeric")
		return
	}
	if !dec.WithinTolerance(g, b.Add(t)) {
		result.AddWarning(fmt.Sprintf("grand total %s does not equal tax basis %s plus tax %s", grand, basis, tax))
	}
}

// DetectFormat returns the format of doc by its root element
func DetectFormat(doc string) (model.FormatTag, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(doc); err != nil {
		return "", fmt.Errorf("failed to parse XML: %w", err)
	}
	root := tree.Root()
	if root == nil {
		return "", fmt.Errorf("empty XML document")
	}
	switch root.Tag {
	case "CrossIndustryInvoice":
		return model.FormatCII, nil
	case "Invoice":
		return model.FormatUBL, nil
	}
	return "", fmt.Errorf("unknown document root %q", root.Tag)
}

// findElement searches for an element by local name, depth first
func findElement(elem *etree.Element, local string) *etree.Element {
	if elem.Tag == local {
		return elem
	}
	for _, child := range elem.ChildElements() {
		if found := findElement(child, local); found != nil {
			return found
		}
	}
	return nil
}

func childText(parent *etree.Element, local string) string {
	for _, child := range parent.ChildElements() {
		if child.Tag == local {
			return strings.TrimSpace(child.Text())
		}
	}
	return ""
}
