package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezonia/einvoice/internal/model"
)

// Memory is an in-memory artifact store
type Memory struct {
	mu        sync.RWMutex
	artifacts map[string]*model.ComplianceArtifact
	clock     func() time.Time
}

// NewMemory creates an empty in-memory artifact store
func NewMemory() *Memory {
	return &Memory{
		artifacts: make(map[string]*model.ComplianceArtifact),
		clock:     time.Now,
	}
}

// Save stores a copy of the artifact and returns its id. A missing id is
// generated.
func (m *Memory) Save(_ context.Context, a *model.ComplianceArtifact) (string, error) {
	if a == nil {
		return "", model.MissingField("artifact")
	}
	if err := a.Check(); err != nil {
		return "", err
	}

	stored := clone(a)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.artifacts[stored.ID]; exists {
		return "", fmt.Errorf("artifact %s already exists", stored.ID)
	}
	m.artifacts[stored.ID] = stored
	return stored.ID, nil
}

// UpdateStatus changes the transmission status of an artifact
func (m *Memory) UpdateStatus(_ context.Context, id string, status model.TransmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.artifacts[id]
	if !ok {
		return ErrNotFound
	}
	if err := model.CheckTransition(a.ValidationOutcome, status); err != nil {
		return err
	}
	a.TransmissionStatus = status
	a.UpdatedAt = m.clock()
	return nil
}

// Get returns a copy of the artifact
func (m *Memory) Get(_ context.Context, id string) (*model.ComplianceArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.artifacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(a), nil
}

// ListByOwner returns the owner's artifacts, oldest first
func (m *Memory) ListByOwner(_ context.Context, ownerID string) ([]*model.ComplianceArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.ComplianceArtifact, 0)
	for _, a := range m.artifacts {
		if a.OwnerID == ownerID {
			out = append(out, clone(a))
		}
	}
	slices.SortFunc(out, func(a, b *model.ComplianceArtifact) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func clone(a *model.ComplianceArtifact) *model.ComplianceArtifact {
	c := *a
	c.Container = slices.Clone(a.Container)
	c.ValidationErrors = slices.Clone(a.ValidationErrors)
	return &c
}

// MemorySettings holds owner configurations in memory. Owners without a
// stored configuration get model.DefaultConfiguration, which has generation
// disabled.
type MemorySettings struct {
	mu      sync.RWMutex
	configs map[string]model.ComplianceConfiguration
}

// NewMemorySettings creates an empty settings store
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{configs: make(map[string]model.ComplianceConfiguration)}
}

// Load returns the owner's configuration
func (s *MemorySettings) Load(_ context.Context, ownerID string) (model.ComplianceConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cfg, ok := s.configs[ownerID]; ok {
		return cfg, nil
	}
	return model.DefaultConfiguration(ownerID), nil
}

// Put stores the configuration under cfg.OwnerID
func (s *MemorySettings) Put(_ context.Context, cfg model.ComplianceConfiguration) error {
	if cfg.OwnerID == "" {
		return model.MissingField("owner_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.OwnerID] = cfg
	return nil
}
