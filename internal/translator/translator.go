// Package translator converts between the caller-facing WorkloadDefinition and
// the Function resource spec stored in the cluster.
package translator

import (
	"errors"
	"path"
	"sort"
	"strconv"

	"mesh-worker-go/api/v1alpha1"
	"mesh-worker-go/internal/domain"
)

// Defaults are the worker-level values used when a definition leaves a field unset.
type Defaults struct {
	ClusterName        string
	ServiceAccountName string
	Resources          domain.Resources
}

// Translator maps definitions to cluster specs and back. It holds no state
// beyond its configuration and is safe for concurrent use.
type Translator struct {
	Bounds   domain.ResourceBounds
	Defaults Defaults
}

// New creates a Translator.
func New(bounds domain.ResourceBounds, defaults Defaults) *Translator {
	return &Translator{Bounds: bounds, Defaults: defaults}
}

var (
	guaranteeToCluster = map[domain.ProcessingGuarantee]v1alpha1.ProcessingGuarantee{
		domain.AtLeastOnce:     v1alpha1.AtleastOnce,
		domain.AtMostOnce:      v1alpha1.AtmostOnce,
		domain.EffectivelyOnce: v1alpha1.EffectivelyOnce,
	}
	positionToCluster = map[domain.SubscriptionPosition]v1alpha1.SubscribePosition{
		domain.PositionLatest:   v1alpha1.Latest,
		domain.PositionEarliest: v1alpha1.Earliest,
	}
)

// ToClusterSpec builds the desired Function spec for def.
func (t *Translator) ToClusterSpec(def *domain.WorkloadDefinition) (*v1alpha1.FunctionSpec, error) {
	if def == nil {
		return nil, domain.Validationf("workload definition is required")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	replicas := def.Parallelism
	if replicas == 0 {
		replicas = 1
	}

	opts := def.CustomRuntimeOptions
	maxReplicas := replicas
	if s, ok := opts[domain.OptionMaxReplicas]; ok {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v <= 0 {
			return nil, domain.Validationf("custom option %s must be a positive integer, got %q", domain.OptionMaxReplicas, s)
		}
		maxReplicas = int32(v)
	}
	if maxReplicas < replicas {
		return nil, domain.Validationf("maxReplicas %d is below parallelism %d", maxReplicas, replicas)
	}

	clusterName := t.Defaults.ClusterName
	if v, ok := opts[domain.OptionClusterName]; ok {
		clusterName = v
	}
	serviceAccount := t.Defaults.ServiceAccountName
	if v, ok := opts[domain.OptionServiceAccountName]; ok {
		serviceAccount = v
	}

	doc, err := opts.Encode()
	if err != nil {
		return nil, err
	}

	guarantee := def.ProcessingGuarantee
	if guarantee == "" {
		guarantee = domain.AtLeastOnce
	}
	position := def.SubscriptionPosition
	if position == "" {
		position = domain.PositionLatest
	}
	subName := def.SubscriptionName
	if subName == "" {
		subName = def.Name
	}

	spec := &v1alpha1.FunctionSpec{
		Name:                         def.Name,
		Tenant:                       def.Tenant,
		Namespace:                    def.Namespace,
		ClassName:                    def.ClassName,
		ClusterName:                  clusterName,
		Replicas:                     &replicas,
		MaxReplicas:                  &maxReplicas,
		Input:                        inputsToCluster(def.Inputs),
		Output:                       v1alpha1.OutputConf{Topic: def.Output},
		LogTopic:                     def.LogTopic,
		DeadLetterTopic:              def.DeadLetterTopic,
		ProcessingGuarantee:          guaranteeToCluster[guarantee],
		RetainOrdering:               def.RetainOrdering,
		RetainKeyOrdering:            def.RetainKeyOrdering,
		SubscriptionName:             subName,
		SubscriptionPosition:         positionToCluster[position],
		CleanupSubscription:          def.CleanupSubscription,
		AutoAck:                      def.AutoAck,
		Timeout:                      int32(def.TimeoutMs),
		MaxMessageRetry:              def.MaxMessageRetries,
		MaxPendingAsyncRequests:      def.MaxPendingAsyncRequests,
		ForwardSourceMessageProperty: def.ForwardSourceMessageProperty,
		Pod:                          v1alpha1.PodPolicy{ServiceAccountName: serviceAccount},
		CustomRuntimeOptions:         doc,
		Resources: v1alpha1.ResourceLimits{
			Limits: formatLimits(ResolveResources(def.Resources, t.Defaults.Resources, t.Bounds)),
		},
	}
	setRuntime(spec, def.Runtime, def.Artifact)

	return spec, nil
}

// ToWorkloadDefinition is the inverse of ToClusterSpec. Values are returned as
// effective values. Cluster-only fields that differ from what forward defaulting
// would produce are folded into the custom runtime options.
func (t *Translator) ToWorkloadDefinition(spec *v1alpha1.FunctionSpec) (*domain.WorkloadDefinition, error) {
	if spec == nil {
		return nil, domain.Validationf("function spec is required")
	}

	var errs []error

	def := &domain.WorkloadDefinition{
		Identity: domain.Identity{
			Tenant:    spec.Tenant,
			Namespace: spec.Namespace,
			Name:      spec.Name,
		},
		ClassName:                    spec.ClassName,
		Inputs:                       inputsFromCluster(spec.Input),
		Output:                       spec.Output.Topic,
		LogTopic:                     spec.LogTopic,
		DeadLetterTopic:              spec.DeadLetterTopic,
		Parallelism:                  1,
		RetainOrdering:               spec.RetainOrdering,
		RetainKeyOrdering:            spec.RetainKeyOrdering,
		SubscriptionName:             spec.SubscriptionName,
		CleanupSubscription:          spec.CleanupSubscription,
		TimeoutMs:                    int64(spec.Timeout),
		MaxMessageRetries:            spec.MaxMessageRetry,
		MaxPendingAsyncRequests:      spec.MaxPendingAsyncRequests,
		AutoAck:                      spec.AutoAck,
		ForwardSourceMessageProperty: spec.ForwardSourceMessageProperty,
	}
	if spec.Replicas != nil && *spec.Replicas > 0 {
		def.Parallelism = *spec.Replicas
	}
	if def.SubscriptionName == "" {
		def.SubscriptionName = spec.Name
	}

	switch spec.ProcessingGuarantee {
	case "", v1alpha1.AtleastOnce:
		def.ProcessingGuarantee = domain.AtLeastOnce
	case v1alpha1.AtmostOnce:
		def.ProcessingGuarantee = domain.AtMostOnce
	case v1alpha1.EffectivelyOnce:
		def.ProcessingGuarantee = domain.EffectivelyOnce
	default:
		errs = append(errs, domain.Validationf("unknown processing guarantee %q", spec.ProcessingGuarantee))
	}

	switch spec.SubscriptionPosition {
	case "", v1alpha1.Latest:
		def.SubscriptionPosition = domain.PositionLatest
	case v1alpha1.Earliest:
		def.SubscriptionPosition = domain.PositionEarliest
	default:
		errs = append(errs, domain.Validationf("unknown subscription position %q", spec.SubscriptionPosition))
	}

	kind, artifact, err := runtimeFromCluster(spec)
	if err != nil {
		errs = append(errs, err)
	}
	def.Runtime, def.Artifact = kind, artifact

	res, err := parseLimits(spec.Resources.Limits)
	if err != nil {
		errs = append(errs, err)
	}
	def.Resources = res

	opts, err := domain.DecodeRuntimeOptions(spec.CustomRuntimeOptions)
	if err != nil {
		errs = append(errs, err)
	}
	def.CustomRuntimeOptions = t.foldClusterFields(opts, spec, def.Parallelism)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (t *Translator) foldClusterFields(opts domain.RuntimeOptions, spec *v1alpha1.FunctionSpec, replicas int32) domain.RuntimeOptions {
	fold := func(key, value, forward string) {
		if value == forward {
			return
		}
		if opts == nil {
			opts = domain.RuntimeOptions{}
		}
		opts[key] = value
	}

	// Forward values are what ToClusterSpec would derive from the decoded options.
	forwardCluster := t.Defaults.ClusterName
	if v, ok := opts[domain.OptionClusterName]; ok {
		forwardCluster = v
	}
	fold(domain.OptionClusterName, spec.ClusterName, forwardCluster)

	forwardSA := t.Defaults.ServiceAccountName
	if v, ok := opts[domain.OptionServiceAccountName]; ok {
		forwardSA = v
	}
	fold(domain.OptionServiceAccountName, spec.Pod.ServiceAccountName, forwardSA)

	if spec.MaxReplicas != nil {
		forwardMax := strconv.Itoa(int(replicas))
		if v, ok := opts[domain.OptionMaxReplicas]; ok {
			forwardMax = v
		}
		fold(domain.OptionMaxReplicas, strconv.Itoa(int(*spec.MaxReplicas)), forwardMax)
	}

	return opts
}

func inputsToCluster(inputs map[string]domain.ConsumerConfig) v1alpha1.InputConf {
	var in v1alpha1.InputConf
	in.Topics = make([]string, 0, len(inputs))
	for topic, cfg := range inputs {
		in.Topics = append(in.Topics, topic)
		if cfg.IsZero() {
			continue
		}
		if in.SourceSpecs == nil {
			in.SourceSpecs = map[string]v1alpha1.ConsumerConfig{}
		}
		in.SourceSpecs[topic] = v1alpha1.ConsumerConfig{
			SchemaType:         cfg.SchemaType,
			SerdeClassName:     cfg.SerdeClassName,
			IsRegexPattern:     cfg.IsRegexPattern,
			ReceiverQueueSize:  copyInt32(cfg.ReceiverQueueSize),
			SchemaProperties:   copyMap(cfg.SchemaProperties),
			ConsumerProperties: copyMap(cfg.ConsumerProperties),
			PoolMessages:       cfg.PoolMessages,
		}
	}
	sort.Strings(in.Topics)
	return in
}

func inputsFromCluster(in v1alpha1.InputConf) map[string]domain.ConsumerConfig {
	if len(in.Topics) == 0 && len(in.SourceSpecs) == 0 {
		return nil
	}
	out := make(map[string]domain.ConsumerConfig, len(in.Topics))
	for _, topic := range in.Topics {
		out[topic] = domain.ConsumerConfig{}
	}
	for topic, cfg := range in.SourceSpecs {
		out[topic] = domain.ConsumerConfig{
			SchemaType:         cfg.SchemaType,
			SerdeClassName:     cfg.SerdeClassName,
			IsRegexPattern:     cfg.IsRegexPattern,
			ReceiverQueueSize:  copyInt32(cfg.ReceiverQueueSize),
			SchemaProperties:   copyMap(cfg.SchemaProperties),
			ConsumerProperties: copyMap(cfg.ConsumerProperties),
			PoolMessages:       cfg.PoolMessages,
		}
	}
	return out
}

func setRuntime(spec *v1alpha1.FunctionSpec, kind domain.RuntimeKind, artifact string) {
	file := ""
	if artifact != "" {
		file = path.Base(artifact)
	}
	switch kind {
	case domain.RuntimePython:
		spec.Python = &v1alpha1.PythonRuntime{Py: file, PyLocation: artifact}
	case domain.RuntimeGo:
		spec.Golang = &v1alpha1.GoRuntime{Go: file, GoLocation: artifact}
	default:
		spec.Java = &v1alpha1.JavaRuntime{Jar: file, JarLocation: artifact}
	}
}

func runtimeFromCluster(spec *v1alpha1.FunctionSpec) (domain.RuntimeKind, string, error) {
	set := 0
	var kind domain.RuntimeKind
	var artifact string
	if spec.Java != nil {
		set++
		kind, artifact = domain.RuntimeJava, firstNonEmpty(spec.Java.JarLocation, spec.Java.Jar)
	}
	if spec.Python != nil {
		set++
		kind, artifact = domain.RuntimePython, firstNonEmpty(spec.Python.PyLocation, spec.Python.Py)
	}
	if spec.Golang != nil {
		set++
		kind, artifact = domain.RuntimeGo, firstNonEmpty(spec.Golang.GoLocation, spec.Golang.Go)
	}
	switch set {
	case 0:
		return domain.RuntimeJava, "", domain.Validationf("function spec has no runtime payload")
	case 1:
		return kind, artifact, nil
	default:
		return kind, artifact, domain.Validationf("function spec has %d runtime payloads, expected one", set)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func copyInt32(p *int32) *int32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
