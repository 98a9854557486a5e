package domain

// ReasonUnreachable marks an instance whose query failed or timed out.
const ReasonUnreachable = "unreachable"

// ExceptionInfo is one recent exception reported by an instance.
type ExceptionInfo struct {
	ExceptionString string `json:"exceptionString"`
	TimestampMs     int64  `json:"timestampMs"`
}

// StatusReport is what an instance runtime returns for a status query.
type StatusReport struct {
	NumRestarts              int64           `json:"numRestarts"`
	NumReceived              int64           `json:"numReceived"`
	NumSuccessfullyProcessed int64           `json:"numSuccessfullyProcessed"`
	NumUserExceptions        int64           `json:"numUserExceptions"`
	NumSystemExceptions      int64           `json:"numSystemExceptions"`
	LatestUserExceptions     []ExceptionInfo `json:"latestUserExceptions,omitempty"`
	LatestSystemExceptions   []ExceptionInfo `json:"latestSystemExceptions,omitempty"`
	AverageLatency           float64         `json:"averageLatency"`
	LastInvocationTime       int64           `json:"lastInvocationTime"`
	WorkerID                 string          `json:"workerId,omitempty"`
	FailureException         string          `json:"failureException,omitempty"`
}

// InstanceStatus is one entry of an AggregateStatus.
type InstanceStatus struct {
	InstanceID int    `json:"instanceId"`
	Running    bool   `json:"running"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusReport
}

// AggregateStatus always carries one entry per expected replica (or one entry when filtered).
type AggregateStatus struct {
	NumInstances int              `json:"numInstances"`
	NumRunning   int              `json:"numRunning"`
	Instances    []InstanceStatus `json:"instances"`
}

// MetricsCounters are the summable counters of a metrics report.
type MetricsCounters struct {
	ReceivedTotal                  int64 `json:"receivedTotal"`
	ProcessedSuccessfullyTotal     int64 `json:"processedSuccessfullyTotal"`
	SystemExceptionsTotal          int64 `json:"systemExceptionsTotal"`
	UserExceptionsTotal            int64 `json:"userExceptionsTotal"`
	ReceivedTotal1Min              int64 `json:"receivedTotal_1min"`
	ProcessedSuccessfullyTotal1Min int64 `json:"processedSuccessfullyTotal_1min"`
	SystemExceptionsTotal1Min      int64 `json:"systemExceptionsTotal_1min"`
	UserExceptionsTotal1Min        int64 `json:"userExceptionsTotal_1min"`
}

// Add accumulates o into c.
func (c *MetricsCounters) Add(o MetricsCounters) {
	c.ReceivedTotal += o.ReceivedTotal
	c.ProcessedSuccessfullyTotal += o.ProcessedSuccessfullyTotal
	c.SystemExceptionsTotal += o.SystemExceptionsTotal
	c.UserExceptionsTotal += o.UserExceptionsTotal
	c.ReceivedTotal1Min += o.ReceivedTotal1Min
	c.ProcessedSuccessfullyTotal1Min += o.ProcessedSuccessfullyTotal1Min
	c.SystemExceptionsTotal1Min += o.SystemExceptionsTotal1Min
	c.UserExceptionsTotal1Min += o.UserExceptionsTotal1Min
}

// MetricsReport is what an instance runtime returns for a metrics query.
type MetricsReport struct {
	MetricsCounters
	AvgProcessLatency     float64            `json:"avgProcessLatency"`
	AvgProcessLatency1Min float64            `json:"avgProcessLatency_1min"`
	LastInvocation        int64              `json:"lastInvocation"`
	UserMetrics           map[string]float64 `json:"userMetrics,omitempty"`
}

// InstanceMetrics is one entry of an AggregateMetrics.
type InstanceMetrics struct {
	InstanceID int            `json:"instanceId"`
	Reachable  bool           `json:"reachable"`
	Reason     string         `json:"reason,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metrics    *MetricsReport `json:"metrics,omitempty"`
}

// AggregateMetrics sums counters over reachable instances and keeps the per-instance breakdown.
type AggregateMetrics struct {
	NumInstances      int               `json:"numInstances"`
	NumReachable      int               `json:"numReachable"`
	Totals            MetricsCounters   `json:"totals"`
	AvgProcessLatency float64           `json:"avgProcessLatency"`
	LastInvocation    int64             `json:"lastInvocation"`
	Instances         []InstanceMetrics `json:"instances"`
}
