// Package labels provides the identity labels and object naming used for every
// Function resource the worker manages.
//
// Label keys use the functionmesh.io domain prefix.
package labels

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	k8slabels "k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"

	"mesh-worker-go/api/v1alpha1"
	"mesh-worker-go/internal/domain"
)

const (
	// KeyTenant identifies the owning tenant
	KeyTenant = "compute.functionmesh.io/tenant"

	// KeyNamespace identifies the workload namespace (not the cluster namespace)
	KeyNamespace = "compute.functionmesh.io/namespace"

	// KeyName identifies the workload name
	KeyName = "compute.functionmesh.io/name"

	// KeyManagedBy marks resources written by this service
	KeyManagedBy = "app.kubernetes.io/managed-by"

	ManagedByMeshWorker = "mesh-worker"
)

// maxObjectName leaves room for the "-function" StatefulSet suffix and pod ordinals
// inside the 63 character DNS label limit.
const maxObjectName = 45

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder pre-set with the identity labels and the managed-by marker.
func NewLabelBuilder(id domain.Identity) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyTenant:    labelValue(id.Tenant),
			KeyNamespace: labelValue(id.Namespace),
			KeyName:      labelValue(id.Name),
			KeyManagedBy: ManagedByMeshWorker,
		},
	}
}

// Merge adds all labels from the provided map without overriding identity labels.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, ok := lb.labels[k]; ok {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Apply writes the identity labels onto existing, keeping every other label.
func Apply(existing map[string]string, id domain.Identity) map[string]string {
	out := NewLabelBuilder(id).Build()
	for k, v := range existing {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// SelectorForNamespace selects every managed Function of a tenant/namespace pair.
func SelectorForNamespace(tenant, namespace string) k8slabels.Selector {
	return k8slabels.SelectorFromSet(k8slabels.Set{
		KeyTenant:    labelValue(tenant),
		KeyNamespace: labelValue(namespace),
		KeyManagedBy: ManagedByMeshWorker,
	})
}

// ObjectName derives the cluster object name for an identity. The result is a
// valid DNS-1123 label ending in a hash of the exact identity, so identities
// that sanitize to the same prefix still get distinct names.
func ObjectName(id domain.Identity) string {
	suffix := identityHash(id)
	name := sanitize(id.Tenant + "-" + id.Namespace + "-" + id.Name)
	if limit := maxObjectName - len(suffix) - 1; len(name) > limit {
		name = strings.TrimRight(name[:limit], "-")
	}
	return name + "-" + suffix
}

// identityHash is 8 hex digits of a length-prefixed encoding of id.
func identityHash(id domain.Identity) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%d:%s%d:%s%d:%s",
		len(id.Tenant), id.Tenant, len(id.Namespace), id.Namespace, len(id.Name), id.Name)))
	return hex.EncodeToString(sum[:])[:8]
}

// IdentityOf returns the identity a stored Function carries in its spec.
func IdentityOf(fn *v1alpha1.Function) domain.Identity {
	return domain.Identity{Tenant: fn.Spec.Tenant, Namespace: fn.Spec.Namespace, Name: fn.Spec.Name}
}

// ValidateObjectName checks a derived name against the DNS-1123 label rules.
func ValidateObjectName(name string) error {
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return domain.Validationf("invalid object name %q: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "fn"
	}
	return out
}

// labelValue makes an identity part safe to use as a label value. Values that
// cannot be represented verbatim are replaced by a hash.
func labelValue(s string) string {
	if len(validation.IsValidLabelValue(s)) == 0 {
		return s
	}
	sum := sha1.Sum([]byte(s))
	return fmt.Sprintf("h-%s", hex.EncodeToString(sum[:])[:16])
}
