package transmit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rezonia/einvoice/internal/model"
)

// AuthType selects how the webservice request is authenticated
type AuthType string

const (
	AuthAPIKey      AuthType = "api_key"
	AuthOAuth       AuthType = "oauth"
	AuthCertificate AuthType = "certificate"
)

// Credentials for a recipient webservice
type Credentials struct {
	Type        AuthType
	APIKey      string
	AccessToken string
	Certificate string
}

// Header returns the Authorization header value, or "" for unknown types
func (c Credentials) Header() string {
	switch c.Type {
	case AuthAPIKey:
		return "Bearer " + c.APIKey
	case AuthOAuth:
		return "Bearer " + c.AccessToken
	case AuthCertificate:
		return "Certificate " + c.Certificate
	default:
		return ""
	}
}

// Webservice posts documents to a recipient endpoint
type Webservice struct {
	client   *http.Client
	endpoint string
	auth     Credentials
	limiter  *rate.Limiter
}

// WebserviceOption configures the webservice channel
type WebserviceOption func(*Webservice)

func WithCredentials(c Credentials) WebserviceOption {
	return func(w *Webservice) {
		w.auth = c
	}
}

func WithClient(client *http.Client) WebserviceOption {
	return func(w *Webservice) {
		if client != nil {
			w.client = client
		}
	}
}

// WithRateLimit caps outgoing requests at r per second with the given burst
func WithRateLimit(r rate.Limit, burst int) WebserviceOption {
	return func(w *Webservice) {
		w.limiter = rate.NewLimiter(r, burst)
	}
}

// NewWebservice creates a webservice channel. The endpoint is used when
// the transmission does not carry its own.
func NewWebservice(endpoint string, opts ...WebserviceOption) *Webservice {
	w := &Webservice{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: endpoint,
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Transmit posts the document as application/xml
func (w *Webservice) Transmit(ctx context.Context, t model.Transmission) error {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = w.endpoint
	}
	if endpoint == "" {
		return model.MissingField("endpoint")
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webservice rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(t.Document))
	if err != nil {
		return fmt.Errorf("build webservice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	if h := w.auth.Header(); h != "" {
		req.Header.Set("Authorization", h)
	}
	if t.InvoiceNumber != "" {
		req.Header.Set("X-Invoice-Number", t.InvoiceNumber)
	}
	if t.RoutingID != "" {
		req.Header.Set("X-Routing-ID", t.RoutingID)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webservice request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webservice returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
