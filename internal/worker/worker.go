// Package worker holds the process-wide context every operation runs against.
// It is built once at startup and passed explicitly; nothing reads it globally.
package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"mesh-worker-go/internal/aggregator"
	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/locator"
	"mesh-worker-go/internal/reconciler"
	"mesh-worker-go/internal/translator"
)

// Config is what the Worker needs from process configuration.
type Config struct {
	Namespace     string
	ClusterDomain string
	GRPCPort      int
	Bounds        domain.ResourceBounds
	Defaults      translator.Defaults
	Aggregate     aggregator.Options
}

// Worker exposes the operation set: apply, get, list, delete, status, stats.
type Worker struct {
	translator *translator.Translator
	reconciler *reconciler.Reconciler
	locator    *locator.Locator
	status     *aggregator.StatusAggregator
	metrics    *aggregator.MetricsAggregator
	logger     *zap.Logger
}

// New wires a Worker around a store client and an instance querier.
func New(c client.Client, querier aggregator.Querier, cfg Config, logger *zap.Logger) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resource bounds: %w", err)
	}

	loc := locator.New(c, locator.Options{
		Namespace:     cfg.Namespace,
		GRPCPort:      cfg.GRPCPort,
		ClusterDomain: cfg.ClusterDomain,
	}, logger)

	return &Worker{
		translator: translator.New(cfg.Bounds, cfg.Defaults),
		reconciler: reconciler.New(c, cfg.Namespace, logger),
		locator:    loc,
		status:     aggregator.NewStatusAggregator(loc, querier, cfg.Aggregate, logger),
		metrics:    aggregator.NewMetricsAggregator(loc, querier, cfg.Aggregate, logger),
		logger:     logger.Named("worker"),
	}, nil
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Operation  reconciler.Operation       `json:"operation"`
	Definition *domain.WorkloadDefinition `json:"definition"`
}

// Apply registers or updates a workload. The identity in the path wins over
// whatever identity the definition body carries.
func (w *Worker) Apply(ctx context.Context, id domain.Identity, def *domain.WorkloadDefinition) (*ApplyResult, error) {
	if def == nil {
		return nil, domain.Validationf("workload definition is required")
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	def.Identity = id

	spec, err := w.translator.ToClusterSpec(def)
	if err != nil {
		return nil, err
	}
	res, err := w.reconciler.CreateOrUpdate(ctx, id, spec)
	if err != nil {
		return nil, err
	}

	applied, err := w.translator.ToWorkloadDefinition(&res.Object.Spec)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("workload applied",
		zap.String("identity", id.String()),
		zap.String("operation", string(res.Operation)),
		zap.Int32("parallelism", applied.Parallelism),
	)
	return &ApplyResult{Operation: res.Operation, Definition: applied}, nil
}

// Get returns the effective definition of a registered workload.
func (w *Worker) Get(ctx context.Context, id domain.Identity) (*domain.WorkloadDefinition, error) {
	fn, err := w.reconciler.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.translator.ToWorkloadDefinition(&fn.Spec)
}

// List returns the names of the workloads registered under tenant/namespace.
func (w *Worker) List(ctx context.Context, tenant, namespace string) ([]string, error) {
	items, err := w.reconciler.List(ctx, tenant, namespace)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, fn := range items {
		names = append(names, fn.Spec.Name)
	}
	return names, nil
}

// Delete deregisters a workload.
func (w *Worker) Delete(ctx context.Context, id domain.Identity) error {
	return w.reconciler.Delete(ctx, id)
}

// Status aggregates instance status. A nil instance means all instances.
func (w *Worker) Status(ctx context.Context, id domain.Identity, instance *int) (*domain.AggregateStatus, error) {
	return w.status.Aggregate(ctx, id, instance)
}

// Stats aggregates instance metrics. A nil instance means all instances.
func (w *Worker) Stats(ctx context.Context, id domain.Identity, instance *int) (*domain.AggregateMetrics, error) {
	return w.metrics.Aggregate(ctx, id, instance)
}

// Instances resolves the expected instances of a workload.
func (w *Worker) Instances(ctx context.Context, id domain.Identity) (*domain.InstanceSet, error) {
	return w.locator.Resolve(ctx, id)
}

// Ready reports whether the cluster store is reachable.
func (w *Worker) Ready(ctx context.Context) error {
	return w.reconciler.Ping(ctx)
}
