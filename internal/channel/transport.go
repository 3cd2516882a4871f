package channel

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/models"
)

// CoordinatorAddress is the channel address of the coordinator.
const CoordinatorAddress = "coordinator"

const workerPrefix = "worker/"

// WorkerAddress is the channel address of the worker running in tab.
func WorkerAddress(sessionID, tab string) string {
	return workerPrefix + sessionID + "/" + tab
}

// IsWorkerAddress reports whether addr names a worker.
func IsWorkerAddress(addr string) bool {
	return strings.HasPrefix(addr, workerPrefix)
}

// Handler receives envelopes for a registered address. It must not block.
type Handler func(env models.Envelope)

// Transport moves envelopes between addresses.
type Transport interface {
	Send(ctx context.Context, env models.Envelope) error
	Register(address string, h Handler) (func(), error)
}

// Router is the in-process Transport. Delivery is synchronous and in send order.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Send delivers env to its destination, or fails with ErrUnreachable.
func (r *Router) Send(ctx context.Context, env models.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	h, ok := r.handlers[env.To]
	r.mu.RUnlock()
	if !ok {
		return errors.Wrapf(apperrors.ErrUnreachable, "%s", env.To)
	}
	h(env)
	return nil
}

// Register binds address to h. The returned func removes the binding.
func (r *Router) Register(address string, h Handler) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[address]; ok {
		return nil, errors.Newf("address %s already registered", address)
	}
	r.handlers[address] = h
	return func() { r.unregister(address) }, nil
}

func (r *Router) unregister(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, address)
}
