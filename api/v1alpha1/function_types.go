package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ProcessingGuarantee is the delivery semantics requested for a function.
// +kubebuilder:validation:Enum=atleast_once;atmost_once;effectively_once
type ProcessingGuarantee string

const (
	AtleastOnce     ProcessingGuarantee = "atleast_once"
	AtmostOnce      ProcessingGuarantee = "atmost_once"
	EffectivelyOnce ProcessingGuarantee = "effectively_once"
)

// SubscribePosition is where a new subscription starts reading.
// +kubebuilder:validation:Enum=latest;earliest
type SubscribePosition string

const (
	Latest   SubscribePosition = "latest"
	Earliest SubscribePosition = "earliest"
)

// FunctionSpec defines the desired state of Function.
type FunctionSpec struct {
	Name      string `json:"name,omitempty"`
	Tenant    string `json:"tenant,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	ClassName string `json:"className,omitempty"`

	// ClusterName is the messaging cluster the function attaches to
	// +optional
	ClusterName string `json:"clusterName,omitempty"`

	// +kubebuilder:validation:Minimum=0
	Replicas *int32 `json:"replicas,omitempty"`

	// MaxReplicas is the autoscaling ceiling
	// +optional
	MaxReplicas *int32 `json:"maxReplicas,omitempty"`

	Input  InputConf  `json:"input"`
	Output OutputConf `json:"output,omitempty"`

	// +optional
	LogTopic string `json:"logTopic,omitempty"`
	// +optional
	DeadLetterTopic string `json:"deadLetterTopic,omitempty"`

	Resources ResourceLimits `json:"resources,omitempty"`

	// +kubebuilder:default=atleast_once
	ProcessingGuarantee ProcessingGuarantee `json:"processingGuarantee,omitempty"`

	RetainOrdering    bool `json:"retainOrdering,omitempty"`
	RetainKeyOrdering bool `json:"retainKeyOrdering,omitempty"`

	SubscriptionName string `json:"subscriptionName,omitempty"`
	// +kubebuilder:default=latest
	SubscriptionPosition SubscribePosition `json:"subscriptionPosition,omitempty"`
	CleanupSubscription  bool              `json:"cleanupSubscription,omitempty"`

	AutoAck bool `json:"autoAck,omitempty"`

	// Timeout is the per-message processing timeout in milliseconds
	// +optional
	Timeout int32 `json:"timeout,omitempty"`
	// +optional
	MaxMessageRetry int32 `json:"maxMessageRetry,omitempty"`
	// +optional
	MaxPendingAsyncRequests int32 `json:"maxPendingAsyncRequests,omitempty"`

	ForwardSourceMessageProperty bool `json:"forwardSourceMessageProperty,omitempty"`

	Pod PodPolicy `json:"pod,omitempty"`

	// Exactly one runtime payload is set.
	Java   *JavaRuntime   `json:"java,omitempty"`
	Python *PythonRuntime `json:"python,omitempty"`
	Golang *GoRuntime     `json:"golang,omitempty"`

	// CustomRuntimeOptions is an opaque JSON document kept verbatim
	// +optional
	CustomRuntimeOptions string `json:"customRuntimeOptions,omitempty"`
}

// InputConf lists the topics a function consumes.
type InputConf struct {
	Topics []string `json:"topics,omitempty"`
	// SourceSpecs carries per-topic consumer overrides
	// +optional
	SourceSpecs map[string]ConsumerConfig `json:"sourceSpecs,omitempty"`
}

// ConsumerConfig is the per-topic consumer override.
type ConsumerConfig struct {
	SchemaType         string            `json:"schemaType,omitempty"`
	SerdeClassName     string            `json:"serdeClassName,omitempty"`
	IsRegexPattern     bool              `json:"isRegexPattern,omitempty"`
	ReceiverQueueSize  *int32            `json:"receiverQueueSize,omitempty"`
	SchemaProperties   map[string]string `json:"schemaProperties,omitempty"`
	ConsumerProperties map[string]string `json:"consumerProperties,omitempty"`
	PoolMessages       bool              `json:"poolMessages,omitempty"`
}

// OutputConf is the topic a function produces to.
type OutputConf struct {
	Topic string `json:"topic,omitempty"`
}

// ResourceLimits holds quantity strings keyed by resource name (cpu, memory, ephemeral-storage).
type ResourceLimits struct {
	Limits map[string]string `json:"limits,omitempty"`
}

// PodPolicy carries the pod-level settings the worker owns.
type PodPolicy struct {
	// +optional
	ServiceAccountName string `json:"serviceAccountName,omitempty"`
}

// JavaRuntime locates a jar package.
type JavaRuntime struct {
	Jar         string `json:"jar,omitempty"`
	JarLocation string `json:"jarLocation,omitempty"`
}

// PythonRuntime locates a python package.
type PythonRuntime struct {
	Py         string `json:"py,omitempty"`
	PyLocation string `json:"pyLocation,omitempty"`
}

// GoRuntime locates a go binary.
type GoRuntime struct {
	Go         string `json:"go,omitempty"`
	GoLocation string `json:"goLocation,omitempty"`
}

// FunctionStatus defines the observed state of Function. It is written by the orchestrator only.
type FunctionStatus struct {
	Replicas           int32              `json:"replicas,omitempty"`
	Selector           string             `json:"selector,omitempty"`
	ObservedGeneration int64              `json:"observedGeneration,omitempty"`
	Conditions         []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:subresource:scale:specpath=.spec.replicas,statuspath=.status.replicas,selectorpath=.status.selector
// +kubebuilder:resource:scope=Namespaced

// Function is the Schema for the functions API.
type Function struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   FunctionSpec   `json:"spec,omitempty"`
	Status FunctionStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// FunctionList contains a list of Function.
type FunctionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Function `json:"items"`
}
