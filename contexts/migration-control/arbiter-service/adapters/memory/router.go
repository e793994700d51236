package memory

import (
	"context"
	"sync"

	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
)

// WeightCall is one SetWeight call observed by the Router.
type WeightCall struct {
	Service string
	Weight  float64
}

// Router records weight updates in process. Fail makes every call return
// ErrRouterUnavailable until cleared.
type Router struct {
	mu      sync.Mutex
	weights map[string]float64
	calls   []WeightCall
	fail    bool
}

func NewRouter() *Router {
	return &Router{weights: make(map[string]float64)}
}

func (r *Router) SetWeight(_ context.Context, service string, weight float64) error {
	if weight < 0 || weight > 1 {
		return domainerrors.ErrInvalidWeight
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, WeightCall{Service: service, Weight: weight})
	if r.fail {
		return domainerrors.ErrRouterUnavailable
	}
	r.weights[service] = weight
	return nil
}

func (r *Router) SetFailing(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *Router) Calls() []WeightCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]WeightCall(nil), r.calls...)
}

func (r *Router) CurrentWeight(service string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.weights[service]
}
