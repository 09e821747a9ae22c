// Package builder renders invoice records into CII and UBL documents.
//
// Builders are deterministic: the same record, metadata and seller party
// always produce byte-identical output. No clock or randomness is consulted.
package builder

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"text/template"

	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/validator"
)

// Builder assembles a structured invoice document
type Builder interface {
	// Build renders inv with format metadata meta. company is the seller;
	// when its name is empty the record's own company party is used.
	Build(inv model.InvoiceRecord, meta model.FormatMetadata, company model.Party) (string, error)

	// Format returns the syntax this builder emits
	Format() model.FormatTag
}

// Registry holds one builder per format
type Registry struct {
	builders map[model.FormatTag]Builder
}

// NewRegistry creates a registry with the CII and UBL builders
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[model.FormatTag]Builder)}
	r.Register(NewCIIBuilder())
	r.Register(NewUBLBuilder())
	return r
}

// Register adds or replaces the builder for b.Format()
func (r *Registry) Register(b Builder) {
	r.builders[b.Format()] = b
}

// Get returns the builder for tag
func (r *Registry) Get(tag model.FormatTag) (Builder, error) {
	b, ok := r.builders[tag]
	if !ok {
		return nil, model.NewInputError("format", fmt.Sprintf("no builder registered for %q", tag))
	}
	return b, nil
}

// Build renders inv with the builder for meta's format
func (r *Registry) Build(inv model.InvoiceRecord, meta model.FormatMetadata, company model.Party) (string, error) {
	if meta == nil {
		return "", model.MissingField("metadata")
	}
	b, err := r.Get(meta.Format())
	if err != nil {
		return "", err
	}
	return b.Build(inv, meta, company)
}

// Detect returns the builder matching the root element of doc
func (r *Registry) Detect(doc string) (Builder, error) {
	tag, err := validator.DetectFormat(doc)
	if err != nil {
		return nil, model.NewInputError("document", err.Error())
	}
	return r.Get(tag)
}

// Formats lists the registered formats in stable order
func (r *Registry) Formats() []model.FormatTag {
	tags := make([]model.FormatTag, 0, len(r.builders))
	for tag := range r.builders {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer fails
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

var funcs = template.FuncMap{
	"x": escape,
}

func render(tmpl *template.Template, view any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render %s document: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
