// Package converter re-maps documents between the CII and UBL syntaxes.
//
// Conversion is field by field: the source is parsed into an invoice
// record and the target builder renders it. Source values the target
// syntax cannot hold are reported as gaps. A source that lacks a value the
// target requires is an error; no partial document is produced.
package converter

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/model"
)

// Result is a converted document with the fields that did not carry over
type Result struct {
	Document string                `json:"document"`
	Gaps     []model.ConversionGap `json:"gaps"`
}

// Converter converts documents
type Converter struct {
	builders       *builder.Registry
	buyerReference string
}

// Option configures a Converter
type Option func(*Converter)

// WithBuyerReference sets the UBL buyer reference used when a CII source
// has none
func WithBuyerReference(ref string) Option {
	return func(c *Converter) {
		c.buyerReference = ref
	}
}

// New creates a converter
func New(opts ...Option) *Converter {
	c := &Converter{builders: builder.NewRegistry()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert re-maps doc from one syntax into the other. Converting into the
// same syntax returns doc unchanged.
func (c *Converter) Convert(doc string, from, to model.FormatTag) (*Result, error) {
	if !from.Valid() {
		return nil, model.NewInputError("from", fmt.Sprintf("unknown format %q", from))
	}
	if !to.Valid() {
		return nil, model.NewInputError("to", fmt.Sprintf("unknown format %q", to))
	}
	if from == to {
		return &Result{Document: doc, Gaps: []model.ConversionGap{}}, nil
	}

	tree := etree.NewDocument()
	if err := tree.ReadFromString(doc); err != nil {
		return nil, model.NewInputError("document", fmt.Sprintf("cannot parse source: %v", err))
	}
	root := tree.Root()
	if root == nil {
		return nil, model.MissingField("document")
	}

	var x *extraction
	switch {
	case from == model.FormatCII && root.Tag == "CrossIndustryInvoice":
		x = extractCII(root)
	case from == model.FormatUBL && root.Tag == "Invoice":
		x = extractUBL(root)
	default:
		return nil, model.NewInputError("document", fmt.Sprintf("root element %q is not a %s document", root.Tag, from))
	}
	if x.err != nil {
		return nil, x.err
	}

	var meta model.FormatMetadata
	switch to {
	case model.FormatCII:
		meta = model.CIIMetadata{ConformanceLevel: model.ConformanceComfort}
	case model.FormatUBL:
		ref := x.invoice.BuyerReference
		if ref == "" {
			ref = c.buyerReference
		}
		meta = model.UBLMetadata{BuyerReference: ref}
	}

	out, err := c.builders.Build(x.invoice, meta, x.invoice.Company)
	if err != nil {
		return nil, err
	}

	gaps := x.gaps
	if gaps == nil {
		gaps = []model.ConversionGap{}
	}
	return &Result{
		Document: annotate(out, from, to),
		Gaps:     gaps,
	}, nil
}

// Convert converts with a default converter
func Convert(doc string, from, to model.FormatTag) (*Result, error) {
	return New().Convert(doc, from, to)
}

// annotate places a machine-conversion notice right after the XML declaration
func annotate(doc string, from, to model.FormatTag) string {
	note := fmt.Sprintf("<!-- Converted from %s to %s by einvoice. Review before transmission. -->",
		strings.ToUpper(from.String()), strings.ToUpper(to.String()))
	if strings.HasPrefix(doc, "<?xml") {
		if i := strings.Index(doc, "?>"); i >= 0 {
			return doc[:i+2] + "\n" + note + doc[i+2:]
		}
	}
	return note + "\n" + doc
}
