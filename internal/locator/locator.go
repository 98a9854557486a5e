// Package locator resolves the expected instances of a workload and what the
// orchestrator currently observes for each of them.
package locator

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"mesh-worker-go/api/v1alpha1"
	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/labels"
)

// StatefulSetSuffix is appended to the Function object name by the orchestrator.
const StatefulSetSuffix = "-function"

// Options configures how instance addresses are built.
type Options struct {
	Namespace     string
	GRPCPort      int
	ClusterDomain string
}

// Locator reads Functions, StatefulSets and Pods. It never writes.
type Locator struct {
	client client.Reader
	opts   Options
	logger *zap.Logger
}

// New creates a Locator.
func New(c client.Reader, opts Options, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ClusterDomain == "" {
		opts.ClusterDomain = "cluster.local"
	}
	return &Locator{client: c, opts: opts, logger: logger.Named("locator")}
}

// Resolve returns one descriptor per replica index of id, ordered by index.
// It fails with ErrNotFound only when the Function does not exist.
func (l *Locator) Resolve(ctx context.Context, id domain.Identity) (*domain.InstanceSet, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	objectName := labels.ObjectName(id)

	fn := &v1alpha1.Function{}
	if err := l.client.Get(ctx, client.ObjectKey{Namespace: l.opts.Namespace, Name: objectName}, fn); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, domain.NotFoundf("function %s", id)
		}
		return nil, fmt.Errorf("%w: failed to read function %s: %w", domain.ErrUnavailable, id, err)
	}
	if stored := labels.IdentityOf(fn); stored != id {
		return nil, domain.NotFoundf("function %s (object %s holds %s)", id, objectName, stored)
	}

	replicas := 1
	if fn.Spec.Replicas != nil {
		replicas = int(*fn.Spec.Replicas)
	}
	if replicas < 0 {
		return nil, fmt.Errorf("%w: function %s has negative replicas %d", domain.ErrUnavailable, id, replicas)
	}

	set := &domain.InstanceSet{
		Identity:  id,
		Replicas:  replicas,
		Instances: make([]domain.InstanceDescriptor, replicas),
	}
	for i := range set.Instances {
		set.Instances[i] = domain.InstanceDescriptor{ID: i, Phase: domain.PhasePending}
	}

	sts := &appsv1.StatefulSet{}
	stsKey := client.ObjectKey{Namespace: l.opts.Namespace, Name: objectName + StatefulSetSuffix}
	if err := l.client.Get(ctx, stsKey, sts); err != nil {
		if apierrors.IsNotFound(err) {
			l.logger.Debug("no instance group yet", zap.String("identity", id.String()))
			return set, nil
		}
		return nil, fmt.Errorf("%w: failed to read instance group %s: %w", domain.ErrUnavailable, stsKey.Name, err)
	}

	if sts.Spec.Selector == nil {
		return set, nil
	}
	selector, err := metav1.LabelSelectorAsSelector(sts.Spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid selector on %s: %w", domain.ErrUnavailable, sts.Name, err)
	}

	pods := &corev1.PodList{}
	if err := l.client.List(ctx, pods,
		client.InNamespace(l.opts.Namespace),
		client.MatchingLabelsSelector{Selector: selector},
	); err != nil {
		return nil, fmt.Errorf("%w: failed to list instances of %s: %w", domain.ErrUnavailable, sts.Name, err)
	}

	service := sts.Spec.ServiceName
	if service == "" {
		service = sts.Name
	}

	for i := range pods.Items {
		pod := &pods.Items[i]
		ordinal, ok := podOrdinal(sts.Name, pod.Name)
		if !ok || ordinal >= replicas {
			continue
		}
		set.Instances[ordinal] = domain.InstanceDescriptor{
			ID:              ordinal,
			PodName:         pod.Name,
			Phase:           podPhase(pod.Status.Phase),
			ContainersReady: containersReady(pod),
			Address:         l.address(pod.Name, service),
		}
	}

	return set, nil
}

func (l *Locator) address(pod, service string) string {
	host := fmt.Sprintf("%s.%s.%s.svc.%s", pod, service, l.opts.Namespace, l.opts.ClusterDomain)
	return net.JoinHostPort(host, strconv.Itoa(l.opts.GRPCPort))
}

// podOrdinal extracts N from "<statefulset>-N".
func podOrdinal(stsName, podName string) (int, bool) {
	suffix, ok := strings.CutPrefix(podName, stsName+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func podPhase(p corev1.PodPhase) domain.Phase {
	switch p {
	case corev1.PodPending:
		return domain.PhasePending
	case corev1.PodRunning:
		return domain.PhaseRunning
	case corev1.PodSucceeded:
		return domain.PhaseSucceeded
	case corev1.PodFailed:
		return domain.PhaseFailed
	default:
		return domain.PhaseUnknown
	}
}

// containersReady is true when the pod reports container statuses and all are ready.
func containersReady(pod *corev1.Pod) bool {
	if len(pod.Status.ContainerStatuses) == 0 {
		return false
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if !cs.Ready {
			return false
		}
	}
	return true
}
