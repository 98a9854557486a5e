package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceDescriptorQueryable(t *testing.T) {
	tests := []struct {
		name      string
		desc      InstanceDescriptor
		queryable bool
		reason    string
	}{
		{"running and ready", InstanceDescriptor{Phase: PhaseRunning, ContainersReady: true}, true, ""},
		{"running not ready", InstanceDescriptor{Phase: PhaseRunning}, false, "ContainersNotReady"},
		{"pending", InstanceDescriptor{Phase: PhasePending}, false, "Pending"},
		{"failed", InstanceDescriptor{Phase: PhaseFailed, ContainersReady: true}, false, "Failed"},
		{"unknown", InstanceDescriptor{Phase: PhaseUnknown}, false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.queryable, tt.desc.Queryable())
			if !tt.queryable {
				assert.Equal(t, tt.reason, tt.desc.NotQueryableReason())
			}
		})
	}
}

func TestInstanceSetLookup(t *testing.T) {
	set := &InstanceSet{
		Replicas: 2,
		Instances: []InstanceDescriptor{
			{ID: 0, Phase: PhaseRunning},
			{ID: 1, Phase: PhasePending},
		},
	}

	d, ok := set.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, PhasePending, d.Phase)

	_, ok = set.Lookup(2)
	assert.False(t, ok)
	_, ok = set.Lookup(-1)
	assert.False(t, ok)
}

func TestRuntimeOptionsRoundTrip(t *testing.T) {
	opts := RuntimeOptions{
		OptionClusterName: "pulsar-west",
		"env.LOG_LEVEL":   "debug",
		"":                "empty key survives",
	}

	doc, err := opts.Encode()
	require.NoError(t, err)

	decoded, err := DecodeRuntimeOptions(doc)
	require.NoError(t, err)
	assert.Equal(t, opts, decoded)
}

func TestRuntimeOptionsEmpty(t *testing.T) {
	doc, err := RuntimeOptions(nil).Encode()
	require.NoError(t, err)
	assert.Empty(t, doc)

	decoded, err := DecodeRuntimeOptions("")
	require.NoError(t, err)
	assert.Nil(t, decoded)

	decoded, err = DecodeRuntimeOptions("{}")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeRuntimeOptionsRejectsNonObject(t *testing.T) {
	_, err := DecodeRuntimeOptions(`["a","b"]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMetricsCountersAdd(t *testing.T) {
	var total MetricsCounters
	total.Add(MetricsCounters{ReceivedTotal: 10, ProcessedSuccessfullyTotal: 8, UserExceptionsTotal: 2})
	total.Add(MetricsCounters{ReceivedTotal: 5, ProcessedSuccessfullyTotal: 5, SystemExceptionsTotal1Min: 1})

	assert.Equal(t, int64(15), total.ReceivedTotal)
	assert.Equal(t, int64(13), total.ProcessedSuccessfullyTotal)
	assert.Equal(t, int64(2), total.UserExceptionsTotal)
	assert.Equal(t, int64(1), total.SystemExceptionsTotal1Min)
}
