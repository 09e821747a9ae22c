package compliance

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ConfigSource,ArtifactStore,Transmitter

import (
	"context"

	"github.com/rezonia/einvoice/internal/model"
)

// ConfigSource loads the owner configuration. It is read once per
// generation attempt.
type ConfigSource interface {
	Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error)
}

// ArtifactStore persists compliance artifacts. Save assigns the id when the
// artifact has none and returns it.
type ArtifactStore interface {
	Save(ctx context.Context, artifact *model.ComplianceArtifact) (string, error)
	UpdateStatus(ctx context.Context, id string, status model.TransmissionStatus) error
	Get(ctx context.Context, id string) (*model.ComplianceArtifact, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ComplianceArtifact, error)
}

// Transmitter delivers a validated document. A nil error is the
// acknowledgement that lets the artifact move to sent.
type Transmitter interface {
	Transmit(ctx context.Context, t model.Transmission) error
}
