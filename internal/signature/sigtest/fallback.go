// Package sigtest provides a synthetic signature.Source for tests and local
// development.
//
// Records produced here do not come from a certified signing device and have
// no legal value. Never wire Fallback into a production deployment.
package sigtest

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"sync"
	"time"

	"github.com/rezonia/einvoice/internal/model"
)

// Algorithm reported by synthetic records
const Algorithm = "ecdsa-plain-SHA256"

// Fallback synthesizes deterministic signature records
type Fallback struct {
	SerialNumber      string
	PublicKey         string
	CertificateSerial string

	// Clock defaults to time.Now
	Clock func() time.Time

	mu      sync.Mutex
	counter uint64
}

// New creates a fallback using the device identifiers from settings
func New(settings model.SignatureSettings) *Fallback {
	f := &Fallback{
		SerialNumber:      settings.SerialNumber,
		PublicKey:         settings.PublicKey,
		CertificateSerial: settings.CertificateSerial,
	}
	if f.SerialNumber == "" {
		f.SerialNumber = "TEST-TSE"
	}
	if f.PublicKey == "" {
		f.PublicKey = base64.StdEncoding.EncodeToString([]byte("test-public-key"))
	}
	if f.CertificateSerial == "" {
		f.CertificateSerial = "TEST-CERT"
	}
	return f
}

// RequestSignature returns the next synthetic record. Transaction numbers
// count up from 1 per Fallback.
func (f *Fallback) RequestSignature(ctx context.Context, ownerID string) (model.SignatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.SignatureRecord{}, err
	}

	f.mu.Lock()
	f.counter++
	txn := strconv.FormatUint(f.counter, 10)
	f.mu.Unlock()

	now := time.Now
	if f.Clock != nil {
		now = f.Clock
	}
	start := now().UTC()

	sum := sha256.Sum256([]byte(ownerID + "|" + f.SerialNumber + "|" + txn + "|" + start.Format(time.RFC3339Nano)))

	return model.SignatureRecord{
		SerialNumber:      f.SerialNumber,
		Algorithm:         Algorithm,
		TransactionNumber: txn,
		StartTime:         start,
		FinishTime:        start.Add(time.Second),
		Signature:         base64.StdEncoding.EncodeToString(sum[:]),
		PublicKey:         f.PublicKey,
		CertificateSerial: f.CertificateSerial,
	}, nil
}
