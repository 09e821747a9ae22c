package signature

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rezonia/einvoice/internal/model"
)

// Source requests signature records from a fiscal signing device
type Source interface {
	RequestSignature(ctx context.Context, ownerID string) (model.SignatureRecord, error)
}

// HTTPSource talks to a remote signing service. The service receives
// {"owner_id": ...} and answers with a signature record.
type HTTPSource struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// HTTPOption configures an HTTPSource
type HTTPOption func(*HTTPSource)

// WithAPIKey sends key as a bearer token
func WithAPIKey(key string) HTTPOption {
	return func(s *HTTPSource) {
		s.apiKey = key
	}
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// NewHTTPSource creates a source for the service at endpoint
func NewHTTPSource(endpoint string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type signatureRequest struct {
	OwnerID string `json:"owner_id"`
}

// RequestSignature asks the service for one signature record
func (s *HTTPSource) RequestSignature(ctx context.Context, ownerID string) (model.SignatureRecord, error) {
	var record model.SignatureRecord

	body, err := json.Marshal(signatureRequest{OwnerID: ownerID})
	if err != nil {
		return record, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return record, ErrDeviceUnavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return record, ErrDeviceUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return record, ErrDeviceUnavailable(fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return record, ErrDeviceUnavailable(fmt.Errorf("decode response: %w", err))
	}
	if err := CheckRecord(record); err != nil {
		return model.SignatureRecord{}, err
	}
	return record, nil
}

// CheckRecord verifies that the device filled in the fields the embedder writes
func CheckRecord(r model.SignatureRecord) error {
	switch {
	case r.SerialNumber == "":
		return ErrIncompleteRecord("serial_number")
	case r.TransactionNumber == "":
		return ErrIncompleteRecord("transaction_number")
	case r.Signature == "":
		return ErrIncompleteRecord("signature")
	}
	return nil
}
