package compliance

import (
	"fmt"

	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/model"
)

// Request is one generation attempt for one invoice
type Request struct {
	OwnerID   string              `json:"owner_id"`
	InvoiceID string              `json:"invoice_id"`
	Invoice   model.InvoiceRecord `json:"invoice"`

	// Company overrides the seller party of the invoice when its name is set
	Company model.Party `json:"company"`

	// Format and Metadata override the owner defaults
	Format   model.FormatTag      `json:"format,omitempty"`
	Metadata model.FormatMetadata `json:"-"`

	// Signature is a record the caller already obtained
	Signature *model.SignatureRecord `json:"signature,omitempty"`

	// Container is the PDF to embed into; a rendered invoice is used when empty
	Container []byte `json:"container,omitempty"`
}

// Plan is what a generation attempt will do, decided before any I/O
type Plan struct {
	Skip bool

	Format   model.FormatTag
	Standard model.Standard
	Metadata model.FormatMetadata

	RequestSignature bool
	EmbedSignature   bool

	EmbedContainer bool
	AttachmentName string

	Strict      bool
	AutoCorrect bool

	Transmit       bool
	Method         model.TransmissionMethod
	RecipientClass model.RecipientClass
	RoutingID      string
	Endpoint       string
}

// Decide derives the plan for req from cfg. It performs no I/O and depends
// on nothing but its arguments.
func Decide(cfg model.ComplianceConfiguration, req Request) (Plan, error) {
	if !cfg.AutoGenerate {
		return Plan{Skip: true}, nil
	}

	plan := Plan{
		Format:         req.Format,
		Standard:       cfg.DefaultStandard,
		Strict:         cfg.Validation.Strict,
		AutoCorrect:    cfg.Validation.AutoCorrect,
		RecipientClass: cfg.Routing.RecipientClass,
		RoutingID:      cfg.Routing.RoutingID,
	}

	if plan.Format == "" && req.Metadata != nil {
		plan.Format = req.Metadata.Format()
	}
	if plan.Format == "" {
		plan.Format = cfg.DefaultFormat
	}
	if plan.Format == "" {
		plan.Format = model.FormatCII
	}
	if !plan.Format.Valid() {
		return Plan{}, model.NewInputError("format", fmt.Sprintf("unknown format %q", plan.Format))
	}
	if plan.Standard == "" {
		plan.Standard = model.StandardEN16931
	}

	switch {
	case req.Metadata == nil:
		meta, err := model.DefaultMetadata(plan.Format, cfg)
		if err != nil {
			return Plan{}, err
		}
		plan.Metadata = meta
	case req.Metadata.Format() != plan.Format:
		return Plan{}, model.NewInputError("metadata", fmt.Sprintf("%s metadata for a %s document", req.Metadata.Format(), plan.Format))
	default:
		plan.Metadata = req.Metadata
	}

	if cfg.Signature.Enabled {
		plan.EmbedSignature = true
		plan.RequestSignature = req.Signature == nil
	}

	if cfg.Container.Enabled {
		plan.EmbedContainer = true
		plan.AttachmentName = cfg.Container.AttachmentName
		if plan.AttachmentName == "" {
			plan.AttachmentName = container.DefaultAttachmentName
		}
	}

	if cfg.AutoTransmit {
		plan.Transmit = true
		plan.Method = cfg.Routing.TransmissionMethod
		if plan.Method == "" {
			plan.Method = model.MethodEmail
			if cfg.Network.Enabled {
				plan.Method = model.MethodWebservice
			}
		}
		if cfg.Network.Enabled {
			plan.Endpoint = cfg.Network.Endpoint
		}
	}

	return plan, nil
}
