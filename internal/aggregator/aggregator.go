// Package aggregator queries every instance of a workload concurrently and
// merges the answers into one status or metrics view.
//
// Each call is request scoped. Only the instance set resolution can fail a
// call; an unreachable instance degrades its own entry and nothing else.
package aggregator

import (
	"context"
	"time"

	"mesh-worker-go/internal/domain"
)

// Resolver returns the expected instances of a workload.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identity) (*domain.InstanceSet, error)
}

// Querier talks to one instance control endpoint.
type Querier interface {
	Status(ctx context.Context, addr string) (*domain.StatusReport, error)
	Metrics(ctx context.Context, addr string) (*domain.MetricsReport, error)
}

// Options bound the fan-out.
type Options struct {
	// QueryTimeout bounds each instance query.
	QueryTimeout time.Duration
	// Deadline bounds the whole call.
	Deadline time.Duration
}

// selectInstances returns the instances a call covers: all of them, or the one
// named by filter. A filter outside [0, replicas) is ErrNotFound.
func selectInstances(set *domain.InstanceSet, filter *int) ([]domain.InstanceDescriptor, error) {
	if filter == nil {
		return set.Instances, nil
	}
	d, ok := set.Lookup(*filter)
	if !ok {
		return nil, domain.NotFoundf("instance %d of %s (replicas %d)", *filter, set.Identity, set.Replicas)
	}
	return []domain.InstanceDescriptor{d}, nil
}
