// Package einvoicelib provides a public API for building and checking
// German e-invoices.
//
// This package exposes the core types and the stateless document
// operations: building CII and UBL documents from invoice records,
// validating, converting, signing and embedding them into PDF containers.
//
// Example usage:
//
//	doc, err := einvoicelib.Build(inv, einvoicelib.CIIMetadata{}, company)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := einvoicelib.Validate(doc, einvoicelib.FormatCII)
//	fmt.Println(result.Valid)
package einvoicelib

import (
	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/converter"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/validator"
)

// Re-export core types for public API
type (
	InvoiceRecord           = model.InvoiceRecord
	LineItem                = model.LineItem
	Party                   = model.Party
	SignatureRecord         = model.SignatureRecord
	FormatTag               = model.FormatTag
	Standard                = model.Standard
	FormatMetadata          = model.FormatMetadata
	CIIMetadata             = model.CIIMetadata
	UBLMetadata             = model.UBLMetadata
	ConformanceLevel        = model.ConformanceLevel
	ComplianceConfiguration = model.ComplianceConfiguration
	ConversionGap           = model.ConversionGap
)

// Re-export result types
type (
	ValidationResult = validator.Result
	ConversionResult = converter.Result
	DocumentCheck    = compliance.DocumentCheck
	Score            = compliance.Score
)

// Re-export format constants
const (
	FormatCII = model.FormatCII
	FormatUBL = model.FormatUBL
)

// Re-export standards
const (
	StandardBasic    = model.StandardBasic
	StandardComfort  = model.StandardComfort
	StandardExtended = model.StandardExtended
	StandardEN16931  = model.StandardEN16931
)

// Re-export conformance levels
const (
	ConformanceBasic    = model.ConformanceBasic
	ConformanceComfort  = model.ConformanceComfort
	ConformanceExtended = model.ConformanceExtended
)

// Re-export error types
type (
	InputError        = model.InputError
	CollaboratorError = model.CollaboratorError
)
