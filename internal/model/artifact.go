package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValidationOutcome of a generated document
type ValidationOutcome string

const (
	OutcomeValid   ValidationOutcome = "valid"
	OutcomeInvalid ValidationOutcome = "invalid"
	OutcomePending ValidationOutcome = "pending"
)

// TransmissionStatus of an artifact
type TransmissionStatus string

const (
	StatusDraft     TransmissionStatus = "draft"
	StatusPending   TransmissionStatus = "pending"
	StatusSent      TransmissionStatus = "sent"
	StatusReceived  TransmissionStatus = "received"
	StatusProcessed TransmissionStatus = "processed"
)

// TransmissionMethod is the outbound channel
type TransmissionMethod string

const (
	MethodEmail      TransmissionMethod = "email"
	MethodWebservice TransmissionMethod = "webservice"
	MethodPortal     TransmissionMethod = "portal"
)

// RecipientClass distinguishes B2B from B2G recipients
type RecipientClass string

const (
	RecipientBusiness   RecipientClass = "business"
	RecipientGovernment RecipientClass = "government"
)

// ComplianceArtifact is the persisted result of one generation attempt.
// Its document content is never patched; a re-generation is a new artifact.
type ComplianceArtifact struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	OwnerID   string `json:"owner_id"`

	Format    FormatTag `json:"format"`
	Standard  Standard  `json:"standard"`
	Document  string    `json:"document"`
	Container []byte    `json:"container,omitempty"`

	Amount decimal.Decimal `json:"amount"`

	ValidationOutcome ValidationOutcome `json:"validation_outcome"`
	ValidationErrors  []string          `json:"validation_errors,omitempty"`

	TransmissionStatus TransmissionStatus `json:"transmission_status"`
	TransmissionMethod TransmissionMethod `json:"transmission_method,omitempty"`
	RecipientClass     RecipientClass     `json:"recipient_class,omitempty"`
	RoutingID          string             `json:"routing_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Check enforces the artifact preconditions: invoice, owner and document
// are required, and an invalid document can never be marked sent.
func (a *ComplianceArtifact) Check() error {
	if a.InvoiceID == "" {
		return NewInputError("invoice_id", "invoice id is required")
	}
	if a.OwnerID == "" {
		return NewInputError("owner_id", "owner id is required")
	}
	if a.Document == "" {
		return NewInputError("document", "document content is required")
	}
	return CheckTransition(a.ValidationOutcome, a.TransmissionStatus)
}

// CheckTransition rejects status values an artifact with the given outcome
// may not hold.
func CheckTransition(outcome ValidationOutcome, status TransmissionStatus) error {
	if outcome == OutcomeInvalid && status == StatusSent {
		return NewInputError("transmission_status", "an invalid document cannot be sent")
	}
	return nil
}
