package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mesh-worker-go/internal/domain"
)

// StatusAggregator builds the per-instance status view of a workload.
type StatusAggregator struct {
	resolver Resolver
	querier  Querier
	opts     Options
	logger   *zap.Logger
}

// NewStatusAggregator creates a StatusAggregator.
func NewStatusAggregator(resolver Resolver, querier Querier, opts Options, logger *zap.Logger) *StatusAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusAggregator{
		resolver: resolver,
		querier:  querier,
		opts:     opts,
		logger:   logger.Named("status_aggregator"),
	}
}

// Aggregate returns one entry per replica ordered by instance id, or a single
// entry when filter is set.
func (a *StatusAggregator) Aggregate(ctx context.Context, id domain.Identity, filter *int) (*domain.AggregateStatus, error) {
	start := time.Now()
	defer func() { fanoutDuration.WithLabelValues(kindStatus).Observe(time.Since(start).Seconds()) }()

	set, err := a.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	instances, err := selectInstances(set, filter)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.InstanceStatus, len(instances))
	var tasks []task[*domain.StatusReport]
	var slots []int

	for i, d := range instances {
		entries[i] = domain.InstanceStatus{InstanceID: d.ID}
		if !d.Queryable() {
			entries[i].Reason = d.NotQueryableReason()
			instanceQueriesTotal.WithLabelValues(kindStatus, "skipped").Inc()
			continue
		}
		addr := d.Address
		tasks = append(tasks, task[*domain.StatusReport]{
			run: func(ctx context.Context) (*domain.StatusReport, error) {
				return a.querier.Status(ctx, addr)
			},
		})
		slots = append(slots, i)
	}

	for t, o := range fanOut(ctx, a.opts.Deadline, a.opts.QueryTimeout, tasks) {
		entry := &entries[slots[t]]
		if o.err != nil || o.value == nil {
			entry.Reason = domain.ReasonUnreachable
			if o.err != nil {
				entry.Error = o.err.Error()
			}
			instanceQueriesTotal.WithLabelValues(kindStatus, "unreachable").Inc()
			a.logger.Debug("instance unreachable",
				zap.String("identity", id.String()),
				zap.Int("instance", entry.InstanceID),
				zap.String("error", entry.Error),
			)
			continue
		}
		entry.Running = true
		entry.StatusReport = *o.value
		instanceQueriesTotal.WithLabelValues(kindStatus, "ok").Inc()
	}

	result := &domain.AggregateStatus{
		NumInstances: len(entries),
		Instances:    entries,
	}
	for _, e := range entries {
		if e.Running {
			result.NumRunning++
		}
	}
	return result, nil
}
