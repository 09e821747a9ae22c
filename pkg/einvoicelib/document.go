package einvoicelib

import (
	"bytes"
	"io"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/converter"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/validator"
)

var builders = builder.NewRegistry()

// Build serializes inv into the syntax selected by meta. company overrides
// the seller party when its name is set. A nil meta builds CII.
func Build(inv InvoiceRecord, meta FormatMetadata, company Party) (string, error) {
	if meta == nil {
		meta = model.CIIMetadata{}
	}
	return builders.Build(inv, meta, company)
}

// Validate checks doc structurally as tag
func Validate(doc string, tag FormatTag) *ValidationResult {
	return validator.Validate(doc, tag)
}

// ValidateStrict checks doc structurally; every warning counts as an error
func ValidateStrict(doc string, tag FormatTag) *ValidationResult {
	return validator.Validate(doc, tag).Strict()
}

// DetectFormat returns the syntax of doc by its root element
func DetectFormat(doc string) (FormatTag, error) {
	return validator.DetectFormat(doc)
}

// Convert re-maps doc from one syntax into the other. buyerReference is
// used for UBL output when the source carries none.
func Convert(doc string, from, to FormatTag, buyerReference string) (*ConversionResult, error) {
	return converter.New(converter.WithBuyerReference(buyerReference)).Convert(doc, from, to)
}

// Sign inserts a signature block into doc
func Sign(doc string, sig SignatureRecord) (string, error) {
	return signature.Embed(doc, sig)
}

// Render returns a plain PDF rendering of inv
func Render(inv InvoiceRecord) ([]byte, error) {
	return container.NewRenderer(nil).Render(inv)
}

// Embed reads a PDF from r and returns it with doc attached as name. An
// empty name uses factur-x.xml.
func Embed(r io.Reader, doc, name string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return container.NewEmbedder().Embed(buf.Bytes(), doc, name)
}

// Extract returns the attachment called name from a PDF container
func Extract(pdf []byte, name string) (string, error) {
	return container.Attachment(pdf, name)
}

// Check inspects doc for the statutory invoice contents
func Check(doc string) *DocumentCheck {
	return compliance.CheckDocument(doc)
}

// ComputeScore rates the readiness of cfg
func ComputeScore(cfg ComplianceConfiguration) Score {
	return compliance.ComputeScore(cfg)
}
