// Package domain holds the workload model shared by the translator, the reconciler
// and the aggregators.
package domain

import (
	"errors"
	"math"
)

// ProcessingGuarantee is the delivery semantics of a workload.
type ProcessingGuarantee string

const (
	AtMostOnce      ProcessingGuarantee = "ATMOST_ONCE"
	AtLeastOnce     ProcessingGuarantee = "ATLEAST_ONCE"
	EffectivelyOnce ProcessingGuarantee = "EFFECTIVELY_ONCE"
)

// Valid reports whether g is one of the known guarantees. The empty value is valid and means AtLeastOnce.
func (g ProcessingGuarantee) Valid() bool {
	switch g {
	case "", AtMostOnce, AtLeastOnce, EffectivelyOnce:
		return true
	}
	return false
}

// SubscriptionPosition is where a new subscription starts reading.
type SubscriptionPosition string

const (
	PositionLatest   SubscriptionPosition = "Latest"
	PositionEarliest SubscriptionPosition = "Earliest"
)

// Valid reports whether p is known. The empty value is valid and means Latest.
func (p SubscriptionPosition) Valid() bool {
	switch p {
	case "", PositionLatest, PositionEarliest:
		return true
	}
	return false
}

// RuntimeKind selects the language runtime an artifact runs under.
type RuntimeKind string

const (
	RuntimeJava   RuntimeKind = "JAVA"
	RuntimePython RuntimeKind = "PYTHON"
	RuntimeGo     RuntimeKind = "GO"
)

// Valid reports whether k is known. The empty value is valid and means Java.
func (k RuntimeKind) Valid() bool {
	switch k {
	case "", RuntimeJava, RuntimePython, RuntimeGo:
		return true
	}
	return false
}

// ConsumerConfig is the optional per-channel consumer configuration.
type ConsumerConfig struct {
	SchemaType         string            `json:"schemaType,omitempty"`
	SerdeClassName     string            `json:"serdeClassName,omitempty"`
	IsRegexPattern     bool              `json:"regexPattern,omitempty"`
	ReceiverQueueSize  *int32            `json:"receiverQueueSize,omitempty"`
	SchemaProperties   map[string]string `json:"schemaProperties,omitempty"`
	ConsumerProperties map[string]string `json:"consumerProperties,omitempty"`
	PoolMessages       bool              `json:"poolMessages,omitempty"`
}

// IsZero reports whether c carries no override at all.
func (c ConsumerConfig) IsZero() bool {
	return c.SchemaType == "" && c.SerdeClassName == "" && !c.IsRegexPattern &&
		c.ReceiverQueueSize == nil && len(c.SchemaProperties) == 0 &&
		len(c.ConsumerProperties) == 0 && !c.PoolMessages
}

// WorkloadDefinition is the caller-facing description of a stream-processing job.
// It is supplied per request and never persisted.
type WorkloadDefinition struct {
	Identity

	Runtime   RuntimeKind `json:"runtime,omitempty"`
	Artifact  string      `json:"artifact,omitempty"`
	ClassName string      `json:"className,omitempty"`

	Inputs          map[string]ConsumerConfig `json:"inputs"`
	Output          string                    `json:"output,omitempty"`
	LogTopic        string                    `json:"logTopic,omitempty"`
	DeadLetterTopic string                    `json:"deadLetterTopic,omitempty"`

	Resources   Resources `json:"resources,omitempty"`
	Parallelism int32     `json:"parallelism,omitempty"`

	ProcessingGuarantee ProcessingGuarantee `json:"processingGuarantees,omitempty"`
	RetainOrdering      bool                `json:"retainOrdering,omitempty"`
	RetainKeyOrdering   bool                `json:"retainKeyOrdering,omitempty"`

	SubscriptionName     string               `json:"subName,omitempty"`
	SubscriptionPosition SubscriptionPosition `json:"subscriptionPosition,omitempty"`
	CleanupSubscription  bool                 `json:"cleanupSubscription,omitempty"`

	TimeoutMs               int64 `json:"timeoutMs,omitempty"`
	MaxMessageRetries       int32 `json:"maxMessageRetries,omitempty"`
	MaxPendingAsyncRequests int32 `json:"maxPendingAsyncRequests,omitempty"`

	AutoAck                      bool `json:"autoAck,omitempty"`
	ForwardSourceMessageProperty bool `json:"forwardSourceMessageProperty,omitempty"`

	CustomRuntimeOptions RuntimeOptions `json:"customRuntimeOptions,omitempty"`
}

// Validate checks the definition without consulting any configured bounds.
// All failures are reported together and each wraps ErrValidation.
func (d *WorkloadDefinition) Validate() error {
	errs := []error{d.Identity.Validate()}

	if len(d.Inputs) == 0 {
		errs = append(errs, Validationf("at least one input channel is required"))
	}
	for topic := range d.Inputs {
		if topic == "" {
			errs = append(errs, Validationf("input channel name must not be empty"))
		}
	}
	if !d.Runtime.Valid() {
		errs = append(errs, Validationf("unknown runtime %q", d.Runtime))
	}
	if !d.ProcessingGuarantee.Valid() {
		errs = append(errs, Validationf("unknown processing guarantee %q", d.ProcessingGuarantee))
	}
	if !d.SubscriptionPosition.Valid() {
		errs = append(errs, Validationf("unknown subscription position %q", d.SubscriptionPosition))
	}
	if d.Parallelism < 0 {
		errs = append(errs, Validationf("parallelism must not be negative, got %d", d.Parallelism))
	}
	if d.TimeoutMs < 0 || d.TimeoutMs > math.MaxInt32 {
		errs = append(errs, Validationf("timeoutMs out of range: %d", d.TimeoutMs))
	}
	if d.MaxMessageRetries < 0 {
		errs = append(errs, Validationf("maxMessageRetries must not be negative, got %d", d.MaxMessageRetries))
	}
	if d.MaxPendingAsyncRequests < 0 {
		errs = append(errs, Validationf("maxPendingAsyncRequests must not be negative, got %d", d.MaxPendingAsyncRequests))
	}
	errs = append(errs, d.Resources.Validate())

	return errors.Join(errs...)
}
