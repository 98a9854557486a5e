package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mesh-worker-go/internal/domain"
)

// MetricsAggregator sums instance metrics over the reachable instances of a workload.
type MetricsAggregator struct {
	resolver Resolver
	querier  Querier
	opts     Options
	logger   *zap.Logger
}

// NewMetricsAggregator creates a MetricsAggregator.
func NewMetricsAggregator(resolver Resolver, querier Querier, opts Options, logger *zap.Logger) *MetricsAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsAggregator{
		resolver: resolver,
		querier:  querier,
		opts:     opts,
		logger:   logger.Named("metrics_aggregator"),
	}
}

// Aggregate returns the summed counters plus the per-instance breakdown.
// Unreachable instances are flagged and contribute zero.
func (a *MetricsAggregator) Aggregate(ctx context.Context, id domain.Identity, filter *int) (*domain.AggregateMetrics, error) {
	start := time.Now()
	defer func() { fanoutDuration.WithLabelValues(kindMetrics).Observe(time.Since(start).Seconds()) }()

	set, err := a.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	instances, err := selectInstances(set, filter)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.InstanceMetrics, len(instances))
	var tasks []task[*domain.MetricsReport]
	var slots []int

	for i, d := range instances {
		entries[i] = domain.InstanceMetrics{InstanceID: d.ID}
		if !d.Queryable() {
			entries[i].Reason = d.NotQueryableReason()
			instanceQueriesTotal.WithLabelValues(kindMetrics, "skipped").Inc()
			continue
		}
		addr := d.Address
		tasks = append(tasks, task[*domain.MetricsReport]{
			run: func(ctx context.Context) (*domain.MetricsReport, error) {
				return a.querier.Metrics(ctx, addr)
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
			instanceQueriesTotal.WithLabelValues(kindMetrics, "unreachable").Inc()
			a.logger.Debug("instance unreachable",
				zap.String("identity", id.String()),
				zap.Int("instance", entry.InstanceID),
				zap.String("error", entry.Error),
			)
			continue
		}
		entry.Reachable = true
		entry.Metrics = o.value
		instanceQueriesTotal.WithLabelValues(kindMetrics, "ok").Inc()
	}

	return summarize(entries), nil
}

// summarize sums counters over reachable entries. The average latency is
// weighted by each instance's successfully processed count.
func summarize(entries []domain.InstanceMetrics) *domain.AggregateMetrics {
	result := &domain.AggregateMetrics{
		NumInstances: len(entries),
		Instances:    entries,
	}

	var weighted float64
	for _, e := range entries {
		if !e.Reachable || e.Metrics == nil {
			continue
		}
		result.NumReachable++
		result.Totals.Add(e.Metrics.MetricsCounters)
		weighted += e.Metrics.AvgProcessLatency * float64(e.Metrics.ProcessedSuccessfullyTotal)
		if e.Metrics.LastInvocation > result.LastInvocation {
			result.LastInvocation = e.Metrics.LastInvocation
		}
	}
	if result.Totals.ProcessedSuccessfullyTotal > 0 {
		result.AvgProcessLatency = weighted / float64(result.Totals.ProcessedSuccessfullyTotal)
	}
	return result
}
