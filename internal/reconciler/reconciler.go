// Package reconciler writes Function resources to the cluster store with
// optimistic concurrency. Writes for one identity are serialized only by the
// store's resourceVersion check; there is no in-process locking.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"mesh-worker-go/api/v1alpha1"
	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/labels"
)

// Operation is what CreateOrUpdate did to the store.
type Operation string

const (
	OperationCreated   Operation = "created"
	OperationUpdated   Operation = "updated"
	OperationUnchanged Operation = "unchanged"
)

// Result is the outcome of a reconcile.
type Result struct {
	Operation Operation
	Object    *v1alpha1.Function
}

// Reconciler manages Function objects in one cluster namespace.
type Reconciler struct {
	client    client.Client
	namespace string
	logger    *zap.Logger
}

// New creates a Reconciler.
func New(c client.Client, namespace string, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		client:    c,
		namespace: namespace,
		logger:    logger.Named("reconciler"),
	}
}

// Namespace returns the cluster namespace objects are written to.
func (r *Reconciler) Namespace() string {
	return r.namespace
}

// CreateOrUpdate makes the stored object for id carry spec.
//
// A new object gets the identity labels and the managed-by marker. An existing
// object has only its spec replaced; its resourceVersion, external labels,
// annotations and status are kept. An identical spec issues no write.
// A stale resourceVersion is returned as ErrConflict and is not retried, as is
// an existing object that holds a different identity.
func (r *Reconciler) CreateOrUpdate(ctx context.Context, id domain.Identity, spec *v1alpha1.FunctionSpec) (*Result, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, domain.Validationf("function spec is required")
	}
	if spec.Tenant != id.Tenant || spec.Namespace != id.Namespace || spec.Name != id.Name {
		return nil, domain.Validationf("spec identity %s/%s/%s does not match %s",
			spec.Tenant, spec.Namespace, spec.Name, id)
	}

	name := labels.ObjectName(id)
	if err := labels.ValidateObjectName(name); err != nil {
		return nil, err
	}

	fn := &v1alpha1.Function{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: r.namespace},
	}
	desired := spec.DeepCopy()

	op, err := controllerutil.CreateOrUpdate(ctx, r.client, fn, func() error {
		if fn.ResourceVersion != "" {
			if stored := labels.IdentityOf(fn); stored != id {
				return fmt.Errorf("%w: object %s holds function %s, not %s", domain.ErrConflict, name, stored, id)
			}
		}
		fn.Labels = labels.Apply(fn.Labels, id)
		fn.Spec = *desired
		return nil
	})
	if err != nil {
		reconcileTotal.WithLabelValues("create_or_update", "error").Inc()
		r.logger.Warn("reconcile failed",
			zap.String("identity", id.String()),
			zap.String("object", name),
			zap.Error(err),
		)
		return nil, classify(err, id)
	}

	result := &Result{Object: fn}
	switch op {
	case controllerutil.OperationResultCreated:
		result.Operation = OperationCreated
	case controllerutil.OperationResultNone:
		result.Operation = OperationUnchanged
	default:
		result.Operation = OperationUpdated
	}
	reconcileTotal.WithLabelValues("create_or_update", string(result.Operation)).Inc()

	r.logger.Info("function reconciled",
		zap.String("identity", id.String()),
		zap.String("object", name),
		zap.String("operation", string(result.Operation)),
		zap.String("resource_version", fn.ResourceVersion),
	)
	return result, nil
}

// Desired returns the object a first CreateOrUpdate of id would create.
func Desired(id domain.Identity, namespace string, spec *v1alpha1.FunctionSpec) *v1alpha1.Function {
	return &v1alpha1.Function{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.GroupVersion.String(),
			Kind:       "Function",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      labels.ObjectName(id),
			Namespace: namespace,
			Labels:    labels.NewLabelBuilder(id).Build(),
		},
		Spec: *spec.DeepCopy(),
	}
}

// Get returns the stored object for id.
func (r *Reconciler) Get(ctx context.Context, id domain.Identity) (*v1alpha1.Function, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	fn := &v1alpha1.Function{}
	key := client.ObjectKey{Namespace: r.namespace, Name: labels.ObjectName(id)}
	if err := r.client.Get(ctx, key, fn); err != nil {
		reconcileTotal.WithLabelValues("get", "error").Inc()
		return nil, classify(err, id)
	}
	if stored := labels.IdentityOf(fn); stored != id {
		reconcileTotal.WithLabelValues("get", "error").Inc()
		return nil, domain.NotFoundf("function %s (object %s holds %s)", id, key.Name, stored)
	}
	reconcileTotal.WithLabelValues("get", "ok").Inc()
	return fn, nil
}

// List returns every managed object of a tenant/namespace pair, ordered by name.
func (r *Reconciler) List(ctx context.Context, tenant, namespace string) ([]v1alpha1.Function, error) {
	if tenant == "" || namespace == "" {
		return nil, domain.Validationf("tenant and namespace are required")
	}
	list := &v1alpha1.FunctionList{}
	err := r.client.List(ctx, list,
		client.InNamespace(r.namespace),
		client.MatchingLabelsSelector{Selector: labels.SelectorForNamespace(tenant, namespace)},
	)
	if err != nil {
		reconcileTotal.WithLabelValues("list", "error").Inc()
		return nil, fmt.Errorf("%w: failed to list functions: %w", domain.ErrUnavailable, err)
	}
	reconcileTotal.WithLabelValues("list", "ok").Inc()

	items := list.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Spec.Name < items[j].Spec.Name })
	return items, nil
}

// Ping checks that the store answers list requests for Functions.
func (r *Reconciler) Ping(ctx context.Context) error {
	if err := r.client.List(ctx, &v1alpha1.FunctionList{}, client.InNamespace(r.namespace), client.Limit(1)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Delete removes the stored object for id. The orchestrator tears down its instances.
func (r *Reconciler) Delete(ctx context.Context, id domain.Identity) error {
	fn, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.client.Delete(ctx, fn); err != nil {
		reconcileTotal.WithLabelValues("delete", "error").Inc()
		return classify(err, id)
	}
	reconcileTotal.WithLabelValues("delete", "ok").Inc()
	r.logger.Info("function deleted", zap.String("identity", id.String()))
	return nil
}

// classify translates store errors into domain error kinds.
func classify(err error, id domain.Identity) error {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return err
	case apierrors.IsNotFound(err):
		return domain.NotFoundf("function %s", id)
	case apierrors.IsAlreadyExists(err):
		return fmt.Errorf("%w: function %s was created concurrently", domain.ErrAlreadyExists, id)
	case apierrors.IsConflict(err):
		return fmt.Errorf("%w: function %s was modified concurrently: %w", domain.ErrConflict, id, err)
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err):
		return fmt.Errorf("%w: store rejected function %s: %w", domain.ErrValidation, id, err)
	default:
		return fmt.Errorf("%w: function %s: %w", domain.ErrUnavailable, id, err)
	}
}
