// Package compliance coordinates invoice generation: it reads the owner
// configuration, builds, signs, validates and embeds the document, persists
// the artifact and hands valid documents to transmission.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/compliance/metrics"
	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/validator"
)

// State of a generation attempt
type State string

const (
	StateNotStarted         State = "not_started"
	StateSignatureRequested State = "signature_requested"
	StateBuilt              State = "built"
	StateValidated          State = "validated"
	StateRejected           State = "rejected"
	StateTransmitted        State = "transmitted"
	StateDraft              State = "draft"
)

// Outcome describes a finished generation attempt
type Outcome struct {
	ArtifactID string                    `json:"artifact_id"`
	Artifact   *model.ComplianceArtifact `json:"artifact"`
	State      State                     `json:"state"`
	Trail      []State                   `json:"trail"`
	Errors     []string                  `json:"errors"`
	Warnings   []string                  `json:"warnings"`
	Check      *DocumentCheck            `json:"check,omitempty"`
}

func (o *Outcome) advance(s State) {
	o.State = s
	o.Trail = append(o.Trail, s)
}

// Orchestrator runs generation attempts
type Orchestrator struct {
	config      ConfigSource
	store       ArtifactStore
	transmitter Transmitter
	signer      signature.Source

	builders *builder.Registry
	embedder *container.Embedder
	renderer *container.Renderer

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	clock   func() time.Time
	newID   func() string
}

// Option configures an Orchestrator
type Option func(o *Orchestrator)

func WithTransmitter(t Transmitter) Option {
	return func(o *Orchestrator) {
		o.transmitter = t
	}
}

func WithSignatureSource(s signature.Source) Option {
	return func(o *Orchestrator) {
		o.signer = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithBuilder replaces the registered builder for b.Format()
func WithBuilder(b builder.Builder) Option {
	return func(o *Orchestrator) {
		o.builders.Register(b)
	}
}

// WithClock sets the time source for artifact timestamps and attachments
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithIDGenerator replaces the uuid generator for artifact ids
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// New constructs an Orchestrator. Configuration source and artifact store
// are required.
func New(config ConfigSource, store ArtifactStore, opts ...Option) (*Orchestrator, error) {
	if config == nil {
		return nil, errors.New("config source is required")
	}
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	o := &Orchestrator{
		config:   config,
		store:    store,
		builders: builder.NewRegistry(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/rezonia/einvoice/internal/compliance"),
		clock:    time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.embedder = container.NewEmbedder(container.WithClock(o.clock))
	o.renderer = container.NewRenderer(o.clock)
	return o, nil
}

// Generate runs one generation attempt. It returns (nil, nil) when the
// owner has not enabled generation.
//
// A failed transmission returns the outcome of the retained draft artifact
// together with the error.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "compliance.Generate", trace.WithAttributes(
		attribute.String("invoice.id", req.InvoiceID),
		attribute.String("owner.id", req.OwnerID),
	))
	defer span.End()

	started := time.Now()
	outcome, err := o.generate(ctx, req)
	o.metrics.ObserveGenerateLatency(time.Since(started))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var collabErr *model.CollaboratorError
		if errors.As(err, &collabErr) {
			o.metrics.IncrementCollaboratorFailure(collabErr.Collaborator)
		}
		o.logger.ErrorContext(ctx, "invoice generation failed",
			"invoice_id", req.InvoiceID,
			"owner_id", req.OwnerID,
			"error", err,
		)
	}
	if outcome != nil {
		span.SetAttributes(attribute.String("generation.state", string(outcome.State)))
		o.metrics.IncrementGeneration(string(outcome.Artifact.Format), string(outcome.State))
	}
	return outcome, err
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (*Outcome, error) {
	if req.OwnerID == "" {
		return nil, model.MissingField("owner_id")
	}
	if req.InvoiceID == "" {
		return nil, model.MissingField("invoice_id")
	}

	cfg, err := o.config.Load(ctx, req.OwnerID)
	if err != nil {
		return nil, model.NewCollaboratorError(model.CollaboratorSettings, "load", err)
	}

	plan, err := Decide(cfg, req)
	if err != nil {
		return nil, err
	}
	if plan.Skip {
		o.logger.DebugContext(ctx, "e-invoice generation disabled for owner", "owner_id", req.OwnerID)
		return nil, nil
	}

	outcome := &Outcome{Errors: make([]string, 0), Warnings: make([]string, 0)}
	outcome.advance(StateNotStarted)

	sig := req.Signature
	if plan.RequestSignature {
		if o.signer == nil {
			return nil, model.NewCollaboratorError(model.CollaboratorSignature, "request", errors.New("no signature source configured"))
		}
		record, err := o.signer.RequestSignature(ctx, req.OwnerID)
		if err != nil {
			return nil, model.NewCollaboratorError(model.CollaboratorSignature, "request", err)
		}
		sig = &record
		outcome.advance(StateSignatureRequested)
	}

	if plan.AutoCorrect {
		corrected, notes := req.Invoice.Corrected()
		for _, n := range notes {
			outcome.Warnings = append(outcome.Warnings, "corrected "+n)
		}
		if len(notes) > 0 {
			o.logger.InfoContext(ctx, "invoice corrected before build",
				"invoice_id", req.InvoiceID,
				"corrections", len(notes),
			)
		}
		req.Invoice = corrected
	}

	doc, err := o.builders.Build(req.Invoice, plan.Metadata, req.Company)
	if err != nil {
		return nil, err
	}
	if plan.EmbedSignature && sig != nil {
		if doc, err = signature.Embed(doc, *sig); err != nil {
			return nil, fmt.Errorf("embed signature: %w", err)
		}
	}
	outcome.advance(StateBuilt)

	result := validator.Validate(doc, plan.Format)
	if plan.Strict {
		result = result.Strict()
	}
	o.metrics.AddValidationFindings(plan.Format.String(), len(result.Errors), len(result.Warnings))
	outcome.Errors = append(outcome.Errors, result.Errors...)
	outcome.Warnings = append(outcome.Warnings, result.Warnings...)
	outcome.advance(StateValidated)

	now := o.clock()
	artifact := &model.ComplianceArtifact{
		ID:                 o.newID(),
		InvoiceID:          req.InvoiceID,
		OwnerID:            req.OwnerID,
		Format:             plan.Format,
		Standard:           plan.Standard,
		Document:           doc,
		Amount:             req.Invoice.GrossTotal,
		ValidationOutcome:  model.OutcomeValid,
		ValidationErrors:   result.Errors,
		TransmissionStatus: model.StatusDraft,
		RecipientClass:     plan.RecipientClass,
		RoutingID:          plan.RoutingID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	outcome.Artifact = artifact

	if !result.Valid {
		artifact.ValidationOutcome = model.OutcomeInvalid
		if err := o.save(ctx, artifact, outcome); err != nil {
			return nil, err
		}
		outcome.advance(StateRejected)
		o.logger.InfoContext(ctx, "generated document rejected",
			"invoice_id", req.InvoiceID,
			"artifact_id", artifact.ID,
			"errors", len(result.Errors),
		)
		return outcome, nil
	}

	if plan.EmbedContainer {
		if artifact.Container, err = o.embed(req, doc, plan.AttachmentName); err != nil {
			return nil, err
		}
	}

	if plan.Transmit {
		outcome.Check = CheckDocument(doc)
		if !outcome.Check.Compliant {
			outcome.Warnings = append(outcome.Warnings, outcome.Check.Errors...)
			plan.Transmit = false
		}
	}

	if !plan.Transmit {
		if err := o.save(ctx, artifact, outcome); err != nil {
			return nil, err
		}
		outcome.advance(StateDraft)
		return outcome, nil
	}

	if o.transmitter == nil {
		return nil, model.NewCollaboratorError(model.CollaboratorTransmission, "transmit", errors.New("no transmitter configured"))
	}

	artifact.TransmissionStatus = model.StatusPending
	artifact.TransmissionMethod = plan.Method
	if err := o.save(ctx, artifact, outcome); err != nil {
		return nil, err
	}

	err = o.transmitter.Transmit(ctx, model.Transmission{
		ArtifactID:    artifact.ID,
		InvoiceNumber: req.Invoice.Number,
		Format:        plan.Format,
		Document:      doc,
		Container:     artifact.Container,
		Method:        plan.Method,
		Recipient:     req.Invoice.Customer,
		RoutingID:     plan.RoutingID,
		Endpoint:      plan.Endpoint,
	})
	if err != nil {
		transmitErr := model.NewCollaboratorError(model.CollaboratorTransmission, "transmit", err)
		if uerr := o.setStatus(ctx, artifact, model.StatusDraft); uerr != nil {
			return nil, errors.Join(transmitErr, uerr)
		}
		outcome.advance(StateDraft)
		return outcome, transmitErr
	}

	if err := o.setStatus(ctx, artifact, model.StatusSent); err != nil {
		return nil, err
	}
	outcome.advance(StateTransmitted)
	o.logger.InfoContext(ctx, "e-invoice transmitted",
		"invoice_id", req.InvoiceID,
		"artifact_id", artifact.ID,
		"method", plan.Method,
	)
	return outcome, nil
}

func (o *Orchestrator) embed(req Request, doc, name string) ([]byte, error) {
	base := req.Container
	if len(base) == 0 {
		rendered, err := o.renderer.Render(req.Invoice)
		if err != nil {
			return nil, fmt.Errorf("render container: %w", err)
		}
		base = rendered
	}
	out, err := o.embedder.Embed(base, doc, name)
	if err != nil {
		return nil, fmt.Errorf("embed container: %w", err)
	}
	return out, nil
}

func (o *Orchestrator) save(ctx context.Context, artifact *model.ComplianceArtifact, outcome *Outcome) error {
	if err := artifact.Check(); err != nil {
		return err
	}
	id, err := o.store.Save(ctx, artifact)
	if err != nil {
		return model.NewCollaboratorError(model.CollaboratorStore, "save", err)
	}
	if id != "" {
		artifact.ID = id
	}
	outcome.ArtifactID = artifact.ID
	return nil
}

func (o *Orchestrator) setStatus(ctx context.Context, artifact *model.ComplianceArtifact, status model.TransmissionStatus) error {
	if err := o.store.UpdateStatus(ctx, artifact.ID, status); err != nil {
		return model.NewCollaboratorError(model.CollaboratorStore, "update_status", err)
	}
	artifact.TransmissionStatus = status
	artifact.UpdatedAt = o.clock()
	return nil
}

// BatchResult pairs a request with its outcome
type BatchResult struct {
	InvoiceID string   `json:"invoice_id"`
	Outcome   *Outcome `json:"outcome,omitempty"`
	Err       error    `json:"-"`
}

// GenerateBatch runs Generate for distinct invoices in parallel, at most
// limit at a time. A failing invoice does not stop the others; its error
// is reported in its result.
func (o *Orchestrator) GenerateBatch(ctx context.Context, reqs []Request, limit int) []BatchResult {
	results := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			outcome, err := o.Generate(gctx, req)
			results[i] = BatchResult{InvoiceID: req.InvoiceID, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
