// Package transmit delivers generated documents to recipients by email,
// webservice or portal.
package transmit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rezonia/einvoice/internal/model"
)

// ErrUnsupportedMethod is returned for methods without a registered channel
var ErrUnsupportedMethod = errors.New("unsupported transmission method")

// Channel delivers one transmission
type Channel interface {
	Transmit(ctx context.Context, t model.Transmission) error
}

// Router dispatches transmissions to the channel registered for their method
type Router struct {
	mu       sync.RWMutex
	channels map[model.TransmissionMethod]Channel
}

// NewRouter creates a router with the portal channel registered
func NewRouter() *Router {
	r := &Router{channels: make(map[model.TransmissionMethod]Channel)}
	r.Handle(model.MethodPortal, Portal{})
	return r
}

// Handle registers ch for method, replacing any earlier channel
func (r *Router) Handle(method model.TransmissionMethod, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[method] = ch
}

// Transmit hands t to the channel registered for t.Method
func (r *Router) Transmit(ctx context.Context, t model.Transmission) error {
	r.mu.RLock()
	ch, ok := r.channels[t.Method]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, t.Method)
	}
	return ch.Transmit(ctx, t)
}

// Portal stands in for public-sector upload portals, which have no API
// integration yet.
type Portal struct{}

func (Portal) Transmit(context.Context, model.Transmission) error {
	return fmt.Errorf("%w: portal upload is not integrated", ErrUnsupportedMethod)
}
