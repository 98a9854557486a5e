package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-worker-go/internal/domain"
)

var testID = domain.Identity{Tenant: "public", Namespace: "default", Name: "word-count"}

type fakeResolver struct {
	set *domain.InstanceSet
	err error
}

func (r *fakeResolver) Resolve(_ context.Context, _ domain.Identity) (*domain.InstanceSet, error) {
	return r.set, r.err
}

// behavior is how one fake instance answers.
type behavior struct {
	status  *domain.StatusReport
	metrics *domain.MetricsReport
	err     error
	block   bool
}

type fakeQuerier struct {
	instances map[string]behavior
	calls     atomic.Int32
}

func (q *fakeQuerier) answer(ctx context.Context, addr string) (behavior, error) {
	q.calls.Add(1)
	b, ok := q.instances[addr]
	if !ok {
		return b, fmt.Errorf("dial %s: connection refused", addr)
	}
	if b.block {
		<-ctx.Done()
		return b, ctx.Err()
	}
	return b, b.err
}

func (q *fakeQuerier) Status(ctx context.Context, addr string) (*domain.StatusReport, error) {
	b, err := q.answer(ctx, addr)
	if err != nil {
		return nil, err
	}
	return b.status, nil
}

func (q *fakeQuerier) Metrics(ctx context.Context, addr string) (*domain.MetricsReport, error) {
	b, err := q.answer(ctx, addr)
	if err != nil {
		return nil, err
	}
	return b.metrics, nil
}

func addr(i int) string { return fmt.Sprintf("fn-%d:9093", i) }

func running(i int) domain.InstanceDescriptor {
	return domain.InstanceDescriptor{ID: i, Phase: domain.PhaseRunning, ContainersReady: true, Address: addr(i)}
}

func instanceSet(descs ...domain.InstanceDescriptor) *domain.InstanceSet {
	return &domain.InstanceSet{Identity: testID, Replicas: len(descs), Instances: descs}
}

var testOpts = Options{QueryTimeout: time.Second, Deadline: 2 * time.Second}

func intPtr(v int) *int { return &v }

func TestStatusAggregate_RunningAndPending(t *testing.T) {
	set := instanceSet(running(0), domain.InstanceDescriptor{ID: 1, Phase: domain.PhasePending})
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {status: &domain.StatusReport{NumReceived: 7, WorkerID: "w-0"}},
	}}
	agg := NewStatusAggregator(&fakeResolver{set: set}, q, testOpts, nil)

	got, err := agg.Aggregate(context.Background(), testID, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, got.NumInstances)
	assert.Equal(t, 1, got.NumRunning)
	require.Len(t, got.Instances, 2)
	assert.Equal(t, domain.InstanceStatus{
		InstanceID:   0,
		Running:      true,
		StatusReport: domain.StatusReport{NumReceived: 7, WorkerID: "w-0"},
	}, got.Instances[0])
	assert.Equal(t, domain.InstanceStatus{InstanceID: 1, Running: false, Reason: "Pending"}, got.Instances[1])
	assert.Equal(t, int32(1), q.calls.Load(), "non-queryable instances get no task")
}

func TestStatusAggregate_Completeness(t *testing.T) {
	tests := []struct {
		name      string
		set       *domain.InstanceSet
		reachable map[string]behavior
		running   int
	}{
		{
			name: "all reachable",
			set:  instanceSet(running(0), running(1), running(2)),
			reachable: map[string]behavior{
				addr(0): {status: &domain.StatusReport{}},
				addr(1): {status: &domain.StatusReport{}},
				addr(2): {status: &domain.StatusReport{}},
			},
			running: 3,
		},
		{
			name:      "none reachable",
			set:       instanceSet(running(0), running(1), running(2), running(3)),
			reachable: map[string]behavior{},
			running:   0,
		},
		{
			name: "mixed phases",
			set: instanceSet(
				running(0),
				domain.InstanceDescriptor{ID: 1, Phase: domain.PhaseRunning},
				domain.InstanceDescriptor{ID: 2, Phase: domain.PhaseFailed},
				running(3),
				domain.InstanceDescriptor{ID: 4, Phase: domain.PhasePending},
			),
			reachable: map[string]behavior{addr(3): {status: &domain.StatusReport{}}},
			running:   1,
		},
		{
			name:    "zero replicas",
			set:     instanceSet(),
			running: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewStatusAggregator(&fakeResolver{set: tt.set}, &fakeQuerier{instances: tt.reachable}, testOpts, nil)

			got, err := agg.Aggregate(context.Background(), testID, nil)
			require.NoError(t, err)

			require.Len(t, got.Instances, tt.set.Replicas)
			for i, e := range got.Instances {
				assert.Equal(t, i, e.InstanceID)
			}
			assert.Equal(t, tt.running, got.NumRunning)
		})
	}
}

func TestStatusAggregate_PartialFailureIsolation(t *testing.T) {
	set := instanceSet(running(0), running(1), running(2))
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {status: &domain.StatusReport{NumReceived: 1}},
		addr(1): {err: errors.New("connection reset by peer")},
		addr(2): {status: &domain.StatusReport{NumReceived: 3}},
	}}
	agg := NewStatusAggregator(&fakeResolver{set: set}, q, testOpts, nil)

	got, err := agg.Aggregate(context.Background(), testID, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, got.NumRunning)
	assert.True(t, got.Instances[0].Running)
	assert.Equal(t, int64(1), got.Instances[0].NumReceived)
	assert.False(t, got.Instances[1].Running)
	assert.Equal(t, domain.ReasonUnreachable, got.Instances[1].Reason)
	assert.Contains(t, got.Instances[1].Error, "connection reset")
	assert.True(t, got.Instances[2].Running)
	assert.Equal(t, int64(3), got.Instances[2].NumReceived)
}

func TestStatusAggregate_Filter(t *testing.T) {
	set := instanceSet(running(0), running(1))
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {status: &domain.StatusReport{WorkerID: "w-0"}},
		addr(1): {status: &domain.StatusReport{WorkerID: "w-1"}},
	}}
	agg := NewStatusAggregator(&fakeResolver{set: set}, q, testOpts, nil)

	got, err := agg.Aggregate(context.Background(), testID, intPtr(1))
	require.NoError(t, err)
	require.Len(t, got.Instances, 1)
	assert.Equal(t, 1, got.Instances[0].InstanceID)
	assert.Equal(t, "w-1", got.Instances[0].WorkerID)
	assert.Equal(t, 1, got.NumInstances)
	assert.Equal(t, int32(1), q.calls.Load())

	for _, bad := range []int{-1, 2, 100} {
		_, err := agg.Aggregate(context.Background(), testID, intPtr(bad))
		assert.ErrorIs(t, err, domain.ErrNotFound, "filter %d", bad)
	}
}

func TestStatusAggregate_ResolveFailureFailsCall(t *testing.T) {
	agg := NewStatusAggregator(&fakeResolver{err: domain.NotFoundf("function %s", testID)}, &fakeQuerier{}, testOpts, nil)

	_, err := agg.Aggregate(context.Background(), testID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusAggregate_CallDeadlineBoundsSlowInstances(t *testing.T) {
	set := instanceSet(running(0), running(1), running(2))
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {status: &domain.StatusReport{}},
		addr(1): {block: true},
		addr(2): {block: true},
	}}
	// Per-instance timeouts alone would take 2 x 10s; the call deadline caps it.
	opts := Options{QueryTimeout: 10 * time.Second, Deadline: 100 * time.Millisecond}
	agg := NewStatusAggregator(&fakeResolver{set: set}, q, opts, nil)

	start := time.Now()
	got, err := agg.Aggregate(context.Background(), testID, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.True(t, got.Instances[0].Running)
	for _, i := range []int{1, 2} {
		assert.False(t, got.Instances[i].Running)
		assert.Equal(t, domain.ReasonUnreachable, got.Instances[i].Reason)
		assert.NotEmpty(t, got.Instances[i].Error)
	}
}

func TestStatusAggregate_PerTaskTimeout(t *testing.T) {
	set := instanceSet(running(0), running(1))
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {status: &domain.StatusReport{}},
		addr(1): {block: true},
	}}
	opts := Options{QueryTimeout: 50 * time.Millisecond, Deadline: 10 * time.Second}
	agg := NewStatusAggregator(&fakeResolver{set: set}, q, opts, nil)

	start := time.Now()
	got, err := agg.Aggregate(context.Background(), testID, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, 1, got.NumRunning)
	assert.Contains(t, got.Instances[1].Error, context.DeadlineExceeded.Error())
}

func TestStatusAggregate_CancellationReturnsPromptly(t *testing.T) {
	set := instanceSet(running(0), running(1))
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {block: true},
		addr(1): {block: true},
	}}
	agg := NewStatusAggregator(&fakeResolver{set: set}, q, Options{QueryTimeout: time.Minute, Deadline: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	got, err := agg.Aggregate(ctx, testID, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 0, got.NumRunning)
	require.Len(t, got.Instances, 2)
	assert.Contains(t, got.Instances[0].Error, context.Canceled.Error())
}

func TestMetricsAggregate_OneTimesOut(t *testing.T) {
	set := instanceSet(running(0), running(1), running(2))
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {metrics: &domain.MetricsReport{
			MetricsCounters:   domain.MetricsCounters{ReceivedTotal: 100, ProcessedSuccessfullyTotal: 90, UserExceptionsTotal: 10},
			AvgProcessLatency: 2,
			LastInvocation:    1000,
		}},
		addr(1): {block: true},
		addr(2): {metrics: &domain.MetricsReport{
			MetricsCounters:   domain.MetricsCounters{ReceivedTotal: 50, ProcessedSuccessfullyTotal: 30, SystemExceptionsTotal: 20},
			AvgProcessLatency: 6,
			LastInvocation:    2000,
		}},
	}}
	opts := Options{QueryTimeout: 50 * time.Millisecond, Deadline: 5 * time.Second}
	agg := NewMetricsAggregator(&fakeResolver{set: set}, q, opts, nil)

	got, err := agg.Aggregate(context.Background(), testID, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, got.NumInstances)
	assert.Equal(t, 2, got.NumReachable)
	assert.Equal(t, domain.MetricsCounters{
		ReceivedTotal:              150,
		ProcessedSuccessfullyTotal: 120,
		SystemExceptionsTotal:      20,
		UserExceptionsTotal:        10,
	}, got.Totals)
	assert.InDelta(t, (2*90+6*30)/120.0, got.AvgProcessLatency, 1e-9)
	assert.Equal(t, int64(2000), got.LastInvocation)

	require.Len(t, got.Instances, 3)
	assert.True(t, got.Instances[0].Reachable)
	assert.False(t, got.Instances[1].Reachable)
	assert.Equal(t, domain.ReasonUnreachable, got.Instances[1].Reason)
	assert.NotEmpty(t, got.Instances[1].Error)
	assert.Nil(t, got.Instances[1].Metrics)
	assert.True(t, got.Instances[2].Reachable)
}

func TestMetricsAggregate_NonQueryableAndFilter(t *testing.T) {
	set := instanceSet(running(0), domain.InstanceDescriptor{ID: 1, Phase: domain.PhaseRunning})
	q := &fakeQuerier{instances: map[string]behavior{
		addr(0): {metrics: &domain.MetricsReport{MetricsCounters: domain.MetricsCounters{ReceivedTotal: 4}}},
	}}
	agg := NewMetricsAggregator(&fakeResolver{set: set}, q, testOpts, nil)

	all, err := agg.Aggregate(context.Background(), testID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Totals.ReceivedTotal)
	assert.Equal(t, "ContainersNotReady", all.Instances[1].Reason)

	one, err := agg.Aggregate(context.Background(), testID, intPtr(0))
	require.NoError(t, err)
	require.Len(t, one.Instances, 1)
	assert.Equal(t, int64(4), one.Totals.ReceivedTotal)

	_, err = agg.Aggregate(context.Background(), testID, intPtr(2))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetricsAggregate_NoProcessedMessages(t *testing.T) {
	got := summarize([]domain.InstanceMetrics{
		{InstanceID: 0, Reachable: true, Metrics: &domain.MetricsReport{AvgProcessLatency: 5}},
		{InstanceID: 1},
	})

	assert.Equal(t, 1, got.NumReachable)
	assert.Zero(t, got.AvgProcessLatency)
}

func TestFanOut_EmptyAndOrdering(t *testing.T) {
	assert.Empty(t, fanOut[int](context.Background(), time.Second, time.Second, nil))

	tasks := make([]task[int], 10)
	for i := range tasks {
		tasks[i] = task[int]{run: func(ctx context.Context) (int, error) {
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i * i, nil
		}}
	}

	out := fanOut(context.Background(), time.Second, time.Second, tasks)
	require.Len(t, out, 10)
	for i, o := range out {
		require.NoError(t, o.err)
		assert.Equal(t, i*i, o.value)
	}
}
