package domain

// Phase is the lifecycle phase the orchestrator reports for an instance.
type Phase string

const (
	PhasePending   Phase = "Pending"
	PhaseRunning   Phase = "Running"
	PhaseSucceeded Phase = "Succeeded"
	PhaseFailed    Phase = "Failed"
	PhaseUnknown   Phase = "Unknown"
)

// InstanceDescriptor is one expected replica of a workload.
type InstanceDescriptor struct {
	ID              int    `json:"instanceId"`
	PodName         string `json:"podName,omitempty"`
	Phase           Phase  `json:"phase"`
	ContainersReady bool   `json:"containersReady"`
	Address         string `json:"address,omitempty"`
}

// Queryable reports whether the instance runtime can be asked for status or metrics.
func (d InstanceDescriptor) Queryable() bool {
	return d.Phase == PhaseRunning && d.ContainersReady
}

// NotQueryableReason explains why Queryable is false.
func (d InstanceDescriptor) NotQueryableReason() string {
	if d.Phase == PhaseRunning && !d.ContainersReady {
		return "ContainersNotReady"
	}
	return string(d.Phase)
}

// InstanceSet has exactly one descriptor per replica index, ordered by ID.
type InstanceSet struct {
	Identity  Identity             `json:"identity"`
	Replicas  int                  `json:"replicas"`
	Instances []InstanceDescriptor `json:"instances"`
}

// Lookup returns the descriptor for id.
func (s *InstanceSet) Lookup(id int) (InstanceDescriptor, bool) {
	if id < 0 || id >= len(s.Instances) {
		return InstanceDescriptor{}, false
	}
	return s.Instances[id], true
}
