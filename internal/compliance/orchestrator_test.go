package compliance_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rezonia/einvoice/internal/builder"
	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/compliance/metrics"
	"github.com/rezonia/einvoice/internal/compliance/mocks"
	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature/sigtest"
	"github.com/rezonia/einvoice/internal/testutil"
)

type OrchestratorSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	config      *mocks.MockConfigSource
	store       *mocks.MockArtifactStore
	transmitter *mocks.MockTransmitter
	cfg         model.ComplianceConfiguration
	now         time.Time
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.config = mocks.NewMockConfigSource(s.ctrl)
	s.store = mocks.NewMockArtifactStore(s.ctrl)
	s.transmitter = mocks.NewMockTransmitter(s.ctrl)
	s.cfg = enabledConfig()
	s.now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
}

func (s *OrchestratorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *OrchestratorSuite) orchestrator(opts ...compliance.Option) *compliance.Orchestrator {
	base := []compliance.Option{
		compliance.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		compliance.WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
		compliance.WithTransmitter(s.transmitter),
		compliance.WithClock(func() time.Time { return s.now }),
		compliance.WithIDGenerator(func() string { return "art-1" }),
	}
	o, err := compliance.New(s.config, s.store, append(base, opts...)...)
	s.Require().NoError(err)
	return o
}

func (s *OrchestratorSuite) request() compliance.Request {
	return compliance.Request{
		OwnerID:   "owner-1",
		InvoiceID: "inv-42",
		Invoice:   testutil.Invoice(),
		Company:   testutil.Company(),
	}
}

func (s *OrchestratorSuite) expectConfig() {
	s.config.EXPECT().Load(gomock.Any(), "owner-1").Return(s.cfg, nil)
}

// saveExpecting captures the artifact state at save time, before later
// status updates mutate it.
func (s *OrchestratorSuite) saveExpecting(outcome model.ValidationOutcome, status model.TransmissionStatus) *gomock.Call {
	return s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *model.ComplianceArtifact) (string, error) {
			s.Equal(outcome, a.ValidationOutcome)
			s.Equal(status, a.TransmissionStatus)
			s.Equal("inv-42", a.InvoiceID)
			s.Equal("owner-1", a.OwnerID)
			s.NotEmpty(a.Document)
			return "", nil
		})
}

func (s *OrchestratorSuite) TestNew() {
	s.Run("nil config source returns error", func() {
		_, err := compliance.New(nil, s.store)
		s.Error(err)
	})

	s.Run("nil store returns error", func() {
		_, err := compliance.New(s.config, nil)
		s.Error(err)
	})
}

func (s *OrchestratorSuite) TestGenerate_Disabled() {
	s.cfg.AutoGenerate = false
	s.expectConfig()

	outcome, err := s.orchestrator().Generate(context.Background(), s.request())
	s.NoError(err)
	s.Nil(outcome)
}

func (s *OrchestratorSuite) TestGenerate_Draft() {
	s.expectConfig()
	s.saveExpecting(model.OutcomeValid, model.StatusDraft)

	outcome, err := s.orchestrator().Generate(context.Background(), s.request())
	s.Require().NoError(err)

	s.Equal(compliance.StateDraft, outcome.State)
	s.Equal([]compliance.State{
		compliance.StateNotStarted,
		compliance.StateBuilt,
		compliance.StateValidated,
		compliance.StateDraft,
	}, outcome.Trail)
	s.Equal("art-1", outcome.ArtifactID)
	s.Equal(model.FormatCII, outcome.Artifact.Format)
	s.Equal("119", outcome.Artifact.Amount.String())
	s.Equal(s.now, outcome.Artifact.CreatedAt)
	s.Empty(outcome.Errors)
}

func (s *OrchestratorSuite) TestGenerate_StoreAssignsID() {
	s.expectConfig()
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return("db-7", nil)

	outcome, err := s.orchestrator().Generate(context.Background(), s.request())
	s.Require().NoError(err)
	s.Equal("db-7", outcome.ArtifactID)
}

func (s *OrchestratorSuite) TestGenerate_RequestsSignature() {
	s.cfg.Signature = model.SignatureSettings{Enabled: true, SerialNumber: "TSE-77"}
	s.expectConfig()
	s.saveExpecting(model.OutcomeValid, model.StatusDraft)

	o := s.orchestrator(compliance.WithSignatureSource(sigtest.New(s.cfg.Signature)))
	outcome, err := o.Generate(context.Background(), s.request())
	s.Require().NoError(err)

	s.Contains(outcome.Trail, compliance.StateSignatureRequested)
	s.Contains(outcome.Artifact.Document, "<ram:SerialNumber>TSE-77</ram:SerialNumber>")
}

func (s *OrchestratorSuite) TestGenerate_UsesSuppliedSignature() {
	s.cfg.Signature.Enabled = true
	s.expectConfig()
	s.saveExpecting(model.OutcomeValid, model.StatusDraft)

	req := s.request()
	sig := testutil.Signature()
	req.Signature = &sig

	outcome, err := s.orchestrator().Generate(context.Background(), req)
	s.Require().NoError(err)

	s.NotContains(outcome.Trail, compliance.StateSignatureRequested)
	s.Contains(outcome.Artifact.Document, "<ram:TransactionNumber>4711</ram:TransactionNumber>")
}

func (s *OrchestratorSuite) TestGenerate_SignatureFailure() {
	s.cfg.Signature.Enabled = true
	s.expectConfig()

	o := s.orchestrator(compliance.WithSignatureSource(failingSource{}))
	outcome, err := o.Generate(context.Background(), s.request())
	s.Nil(outcome)

	var collabErr *model.CollaboratorError
	s.Require().True(errors.As(err, &collabErr))
	s.Equal(model.CollaboratorSignature, collabErr.Collaborator)
}

func (s *OrchestratorSuite) TestGenerate_InputError() {
	s.expectConfig()

	req := s.request()
	req.Invoice.GrossTotal = req.Invoice.NetAmount

	outcome, err := s.orchestrator().Generate(context.Background(), req)
	s.Nil(outcome)

	var inputErr *model.InputError
	s.Require().True(errors.As(err, &inputErr))
	s.Equal("gross_total", inputErr.Field)
}

func (s *OrchestratorSuite) TestGenerate_AutoCorrect() {
	s.cfg.Validation.AutoCorrect = true
	s.expectConfig()
	s.saveExpecting(model.OutcomeValid, model.StatusDraft)

	req := s.request()
	req.Invoice.GrossTotal = req.Invoice.NetAmount
	req.Invoice.Items[0].Total = decimal.RequireFromString("90.00")

	outcome, err := s.orchestrator().Generate(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(compliance.StateDraft, outcome.State)
	s.Equal("119", outcome.Artifact.Amount.String())
	s.Contains(outcome.Artifact.Document, "<ram:GrandTotalAmount>119.00</ram:GrandTotalAmount>")
	s.Contains(outcome.Warnings, "corrected gross_total: 100.00 -> 119.00")
	s.Contains(outcome.Warnings, "corrected items[0].total: 90.00 -> 100.00")
	s.Equal("90", req.Invoice.Items[0].Total.String(), "caller's line items must not change")
}

func (s *OrchestratorSuite) TestGenerate_MissingIDs() {
	req := s.request()
	req.InvoiceID = ""

	_, err := s.orchestrator().Generate(context.Background(), req)
	var inputErr *model.InputError
	s.Require().True(errors.As(err, &inputErr))
	s.Equal("invoice_id", inputErr.Field)
}

func (s *OrchestratorSuite) TestGenerate_Rejected() {
	s.cfg.AutoTransmit = true
	s.expectConfig()
	s.saveExpecting(model.OutcomeInvalid, model.StatusDraft)

	o := s.orchestrator(compliance.WithBuilder(brokenBuilder{}))
	outcome, err := o.Generate(context.Background(), s.request())
	s.Require().NoError(err)

	s.Equal(compliance.StateRejected, outcome.State)
	s.NotEmpty(outcome.Errors)
	s.Equal(outcome.Errors, outcome.Artifact.ValidationErrors)
}

func (s *OrchestratorSuite) TestGenerate_StrictPromotesWarnings() {
	s.expectConfig()
	s.saveExpecting(model.OutcomeInvalid, model.StatusDraft)

	o := s.orchestrator(compliance.WithBuilder(noGuidelineBuilder{}))
	outcome, err := o.Generate(context.Background(), s.request())
	s.Require().NoError(err)
	s.Equal(compliance.StateRejected, outcome.State)
	s.Len(outcome.Errors, 1)

	s.cfg.Validation.Strict = false
	s.expectConfig()
	s.saveExpecting(model.OutcomeValid, model.StatusDraft)

	outcome, err = o.Generate(context.Background(), s.request())
	s.Require().NoError(err)
	s.Equal(compliance.StateDraft, outcome.State)
	s.Len(outcome.Warnings, 1)
}

func (s *OrchestratorSuite) TestGenerate_Transmitted() {
	s.cfg.AutoTransmit = true
	s.expectConfig()

	gomock.InOrder(
		s.saveExpecting(model.OutcomeValid, model.StatusPending),
		s.transmitter.EXPECT().Transmit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, t model.Transmission) error {
				s.Equal("art-1", t.ArtifactID)
				s.Equal(model.MethodEmail, t.Method)
				s.Equal("einkauf@beispiel.de", t.Recipient.Email)
				s.Equal("RE-2025-0042", t.InvoiceNumber)
				return nil
			}),
		s.store.EXPECT().UpdateStatus(gomock.Any(), "art-1", model.StatusSent).Return(nil),
	)

	outcome, err := s.orchestrator().Generate(context.Background(), s.request())
	s.Require().NoError(err)

	s.Equal(compliance.StateTransmitted, outcome.State)
	s.Equal(model.StatusSent, outcome.Artifact.TransmissionStatus)
	s.Equal(model.MethodEmail, outcome.Artifact.TransmissionMethod)
	s.Require().NotNil(outcome.Check)
	s.True(outcome.Check.Compliant)
}

func (s *OrchestratorSuite) TestGenerate_TransmissionFailureKeepsDraft() {
	s.cfg.AutoTransmit = true
	s.expectConfig()

	gomock.InOrder(
		s.saveExpecting(model.OutcomeValid, model.StatusPending),
		s.transmitter.EXPECT().Transmit(gomock.Any(), gomock.Any()).Return(errors.New("mailbox full")),
		s.store.EXPECT().UpdateStatus(gomock.Any(), "art-1", model.StatusDraft).Return(nil),
	)

	outcome, err := s.orchestrator().Generate(context.Background(), s.request())

	var collabErr *model.CollaboratorError
	s.Require().True(errors.As(err, &collabErr))
	s.Equal(model.CollaboratorTransmission, collabErr.Collaborator)

	s.Require().NotNil(outcome)
	s.Equal(compliance.StateDraft, outcome.State)
	s.Equal(model.StatusDraft, outcome.Artifact.TransmissionStatus)
}

func (s *OrchestratorSuite) TestGenerate_CollaboratorFailures() {
	s.Run("settings", func() {
		s.config.EXPECT().Load(gomock.Any(), "owner-1").Return(model.ComplianceConfiguration{}, errors.New("timeout"))

		_, err := s.orchestrator().Generate(context.Background(), s.request())
		var collabErr *model.CollaboratorError
		s.Require().True(errors.As(err, &collabErr))
		s.Equal(model.CollaboratorSettings, collabErr.Collaborator)
	})

	s.Run("store", func() {
		s.expectConfig()
		s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))

		outcome, err := s.orchestrator().Generate(context.Background(), s.request())
		s.Nil(outcome)
		var collabErr *model.CollaboratorError
		s.Require().True(errors.As(err, &collabErr))
		s.Equal(model.CollaboratorStore, collabErr.Collaborator)
	})
}

func (s *OrchestratorSuite) TestGenerate_Container() {
	s.cfg.Container.Enabled = true
	s.expectConfig()
	s.saveExpecting(model.OutcomeValid, model.StatusDraft)

	outcome, err := s.orchestrator().Generate(context.Background(), s.request())
	s.Require().NoError(err)
	s.Require().NotEmpty(outcome.Artifact.Container)

	attached, err := container.Attachment(outcome.Artifact.Container, container.DefaultAttachmentName)
	s.Require().NoError(err)
	s.Equal(outcome.Artifact.Document, attached)
}

func (s *OrchestratorSuite) TestGenerateBatch() {
	s.config.EXPECT().Load(gomock.Any(), "owner-1").Return(s.cfg, nil).Times(3)

	var saved atomic.Int32
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *model.ComplianceArtifact) (string, error) {
			saved.Add(1)
			return a.InvoiceID, nil
		}).Times(2)

	reqs := make([]compliance.Request, 3)
	for i, id := range []string{"inv-1", "inv-2", "inv-3"} {
		reqs[i] = s.request()
		reqs[i].InvoiceID = id
	}
	reqs[1].Invoice.Number = ""

	results := s.orchestrator().GenerateBatch(context.Background(), reqs, 2)
	s.Require().Len(results, 3)

	s.NoError(results[0].Err)
	s.Equal("inv-1", results[0].Outcome.ArtifactID)
	s.Error(results[1].Err)
	s.Nil(results[1].Outcome)
	s.NoError(results[2].Err)
	s.Equal("inv-3", results[2].Outcome.ArtifactID)
	s.Equal(int32(2), saved.Load())
}

type failingSource struct{}

func (failingSource) RequestSignature(context.Context, string) (model.SignatureRecord, error) {
	return model.SignatureRecord{}, errors.New("device offline")
}

// brokenBuilder emits a CII document without a buyer party
type brokenBuilder struct{}

func (brokenBuilder) Format() model.FormatTag { return model.FormatCII }

func (brokenBuilder) Build(model.InvoiceRecord, model.FormatMetadata, model.Party) (string, error) {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100">
  <ram:ID>RE-1</ram:ID>
</rsm:CrossIndustryInvoice>`, nil
}

// noGuidelineBuilder drops the guideline context, which is a warning only
type noGuidelineBuilder struct{}

func (noGuidelineBuilder) Format() model.FormatTag { return model.FormatCII }

func (noGuidelineBuilder) Build(inv model.InvoiceRecord, meta model.FormatMetadata, company model.Party) (string, error) {
	doc, err := builder.NewCIIBuilder().Build(inv, meta, company)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(doc, "GuidelineSpecifiedDocumentContextParameter", "OtherParameter"), nil
}
