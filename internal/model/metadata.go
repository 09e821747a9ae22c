package model

import "fmt"

// ConformanceLevel is the CII profile level
type ConformanceLevel string

const (
	ConformanceBasic    ConformanceLevel = "BASIC"
	ConformanceComfort  ConformanceLevel = "COMFORT"
	ConformanceExtended ConformanceLevel = "EXTENDED"
)

// Guideline identifiers written into the CII document context
const (
	GuidelineBasic    = "urn:cen.eu:en16931:2017#compliant#urn:factur-x.eu:1p0:basic"
	GuidelineComfort  = "urn:cen.eu:en16931:2017"
	GuidelineExtended = "urn:cen.eu:en16931:2017#conformant#urn:factur-x.eu:1p0:extended"
)

// UBL header defaults (XRechnung CIUS on the Peppol billing process)
const (
	DefaultUBLCustomization = "urn:cen.eu:en16931:2017#compliant#urn:xeinkauf.de:kosit:xrechnung_3.0"
	DefaultUBLProfile       = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"
)

// FormatMetadata is the format-specific metadata of a document. The set of
// implementations is closed: CIIMetadata and UBLMetadata.
type FormatMetadata interface {
	Format() FormatTag
	isFormatMetadata()
}

// CIIMetadata configures a Cross-Industry-Invoice document
type CIIMetadata struct {
	ConformanceLevel ConformanceLevel `json:"conformance_level"`
	GuidelineID      string           `json:"guideline_id,omitempty"`
	SpecificationID  string           `json:"specification_id,omitempty"`
}

// UBLMetadata configures a UBL document
type UBLMetadata struct {
	BuyerReference      string `json:"buyer_reference,omitempty"`
	RoutingID           string `json:"routing_id,omitempty"`
	SpecificationID     string `json:"specification_id,omitempty"`
	BusinessProcessType string `json:"business_process_type,omitempty"`
}

func (CIIMetadata) Format() FormatTag { return FormatCII }
func (CIIMetadata) isFormatMetadata() {}

func (UBLMetadata) Format() FormatTag { return FormatUBL }
func (UBLMetadata) isFormatMetadata() {}

// Guideline returns the explicit guideline id or the one implied by the
// conformance level.
func (m CIIMetadata) Guideline() string {
	if m.GuidelineID != "" {
		return m.GuidelineID
	}
	switch m.ConformanceLevel {
	case ConformanceBasic:
		return GuidelineBasic
	case ConformanceExtended:
		return GuidelineExtended
	default:
		return GuidelineComfort
	}
}

// Customization returns the CustomizationID to emit
func (m UBLMetadata) Customization() string {
	if m.SpecificationID != "" {
		return m.SpecificationID
	}
	return DefaultUBLCustomization
}

// Profile returns the ProfileID to emit
func (m UBLMetadata) Profile() string {
	if m.BusinessProcessType != "" {
		return m.BusinessProcessType
	}
	return DefaultUBLProfile
}

// Reference returns the buyer reference, falling back to the routing id
func (m UBLMetadata) Reference() string {
	if m.BuyerReference != "" {
		return m.BuyerReference
	}
	return m.RoutingID
}

// ConformanceFor maps a standard onto a CII conformance level
func ConformanceFor(s Standard) ConformanceLevel {
	switch s {
	case StandardBasic:
		return ConformanceBasic
	case StandardExtended:
		return ConformanceExtended
	default:
		return ConformanceComfort
	}
}

// DefaultMetadata derives metadata for tag from the owner configuration
func DefaultMetadata(tag FormatTag, cfg ComplianceConfiguration) (FormatMetadata, error) {
	switch tag {
	case FormatCII:
		return CIIMetadata{ConformanceLevel: ConformanceFor(cfg.DefaultStandard)}, nil
	case FormatUBL:
		return UBLMetadata{
			BuyerReference: cfg.Routing.BuyerReference,
			RoutingID:      cfg.Routing.RoutingID,
		}, nil
	}
	return nil, NewInputError("format", fmt.Sprintf("no metadata for format %q", tag))
}
