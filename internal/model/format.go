package model

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// FormatTag identifies one of the two structured invoice syntaxes
type FormatTag string

const (
	FormatCII FormatTag = "cii" // Cross-Industry-Invoice (ZUGFeRD / Factur-X)
	FormatUBL FormatTag = "ubl" // Universal Business Language (XRechnung)
)

// ParseFormatTag accepts the tag names and their national aliases
func ParseFormatTag(s string) (FormatTag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cii", "zugferd", "facturx", "factur-x":
		return FormatCII, nil
	case "ubl", "xrechnung":
		return FormatUBL, nil
	}
	return "", NewInputError("format", fmt.Sprintf("unknown format %q", s))
}

// String returns the tag value
func (f FormatTag) String() string {
	return string(f)
}

// Valid reports whether f is a known tag
func (f FormatTag) Valid() bool {
	return f == FormatCII || f == FormatUBL
}

// Standard is the profile/standard the document claims conformance to
type Standard string

const (
	StandardEN16931  Standard = "EN16931"
	StandardBasic    Standard = "BASIC"
	StandardComfort  Standard = "COMFORT"
	StandardExtended Standard = "EXTENDED"
)

// ParseStandard parses a standard identifier case-insensitively
func ParseStandard(s string) (Standard, error) {
	switch Standard(strings.ToUpper(strings.TrimSpace(s))) {
	case StandardEN16931:
		return StandardEN16931, nil
	case StandardBasic:
		return StandardBasic, nil
	case StandardComfort:
		return StandardComfort, nil
	case StandardExtended:
		return StandardExtended, nil
	}
	return "", NewInputError("standard", fmt.Sprintf("unknown standard %q", s))
}

// DetectStandard reads the claimed standard from the guideline ID of a
// CII document or the CustomizationID of a UBL document. Other text in the
// document is ignored.
func DetectStandard(doc string) Standard {
	return StandardFromID(guidelineID(doc))
}

// StandardFromID maps a guideline or customization identifier to a standard
func StandardFromID(id string) Standard {
	id = strings.ToLower(id)
	switch {
	case strings.Contains(id, "basic"):
		return StandardBasic
	case strings.Contains(id, "extended"):
		return StandardExtended
	case strings.Contains(id, "comfort"):
		return StandardComfort
	}
	return StandardEN16931
}

func guidelineID(doc string) string {
	d := etree.NewDocument()
	if err := d.ReadFromString(doc); err != nil || d.Root() == nil {
		return ""
	}
	root := d.Root()
	if e := root.FindElement("./ExchangedDocumentContext/GuidelineSpecifiedDocumentContextParameter/ID"); e != nil {
		return strings.TrimSpace(e.Text())
	}
	if e := root.FindElement("./CustomizationID"); e != nil {
		return strings.TrimSpace(e.Text())
	}
	return ""
}
