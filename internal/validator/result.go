package validator

import "github.com/rezonia/einvoice/internal/model"

// Result is the outcome of a structural validation. Errors make a document
// invalid; warnings are advisory.
type Result struct {
	Valid    bool            `json:"valid"`
	Format   model.FormatTag `json:"format"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// NewResult creates an empty, valid result for tag
func NewResult(tag model.FormatTag) *Result {
	return &Result{
		Valid:    true,
		Format:   tag,
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}
}

// AddWarning adds a warning message to the result
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError adds an error message and sets Valid to false
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// Strict returns a copy of r in which every warning counts as an error
func (r *Result) Strict() *Result {
	out := NewResult(r.Format)
	for _, e := range r.Errors {
		out.AddError(e)
	}
	for _, w := range r.Warnings {
		out.AddError(w)
	}
	return out
}

// Findings returns errors followed by warnings
func (r *Result) Findings() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}
