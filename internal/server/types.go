package server

import (
	"github.com/rezonia/einvoice/internal/compliance"
)

// GenerateResponse is the response for generate endpoint
type GenerateResponse struct {
	Generated bool                `json:"generated"`
	Outcome   *compliance.Outcome `json:"outcome,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// BatchItem is one entry of the batch generate response
type BatchItem struct {
	InvoiceID string              `json:"invoice_id"`
	Outcome   *compliance.Outcome `json:"outcome,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// ValidationResponse is the response for validate endpoint
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Format   string   `json:"format,omitempty"`
	Standard string   `json:"standard,omitempty"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// EmbedRequest carries a PDF (base64 in JSON) and the document to attach
type EmbedRequest struct {
	Container      []byte `json:"container" binding:"required"`
	Document       string `json:"document" binding:"required"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
