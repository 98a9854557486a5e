package translator

import (
	"strconv"

	"k8s.io/apimachinery/pkg/api/resource"

	"mesh-worker-go/internal/domain"
)

// Limit keys on the cluster resource.
const (
	LimitCPU    = "cpu"
	LimitMemory = "memory"
	LimitDisk   = "ephemeral-storage"
)

// ResolveResources applies the precedence table per field: requested value, then
// the configured default, then the configured minimum. The chosen value is then
// clamped into [min, max].
func ResolveResources(req domain.Resources, defaults domain.Resources, bounds domain.ResourceBounds) domain.ResourceValues {
	cpu := bounds.Min.CPU
	switch {
	case req.CPU != nil:
		cpu = *req.CPU
	case defaults.CPU != nil:
		cpu = *defaults.CPU
	}

	ram := bounds.Min.RAM
	switch {
	case req.RAM != nil:
		ram = *req.RAM
	case defaults.RAM != nil:
		ram = *defaults.RAM
	}

	disk := bounds.Min.Disk
	switch {
	case req.Disk != nil:
		disk = *req.Disk
	case defaults.Disk != nil:
		disk = *defaults.Disk
	}

	return domain.ResourceValues{
		CPU:  clamp(cpu, bounds.Min.CPU, bounds.Max.CPU),
		RAM:  clamp(ram, bounds.Min.RAM, bounds.Max.RAM),
		Disk: clamp(disk, bounds.Min.Disk, bounds.Max.Disk),
	}
}

func clamp[T float64 | int64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatLimits(v domain.ResourceValues) map[string]string {
	return map[string]string{
		LimitCPU:    strconv.FormatFloat(v.CPU, 'f', -1, 64),
		LimitMemory: strconv.FormatInt(v.RAM, 10),
		LimitDisk:   strconv.FormatInt(v.Disk, 10),
	}
}

// parseLimits reads limit strings back. Plain numbers are what formatLimits
// writes; Kubernetes quantities ("500m", "2Gi") are accepted for resources
// edited by hand.
func parseLimits(limits map[string]string) (domain.Resources, error) {
	var out domain.Resources

	if s, ok := limits[LimitCPU]; ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			q, qerr := resource.ParseQuantity(s)
			if qerr != nil {
				return out, domain.Validationf("cpu limit %q is not numeric", s)
			}
			v = q.AsApproximateFloat64()
		}
		out.CPU = &v
	}
	if s, ok := limits[LimitMemory]; ok {
		v, err := parseBytes(LimitMemory, s)
		if err != nil {
			return out, err
		}
		out.RAM = &v
	}
	if s, ok := limits[LimitDisk]; ok {
		v, err := parseBytes(LimitDisk, s)
		if err != nil {
			return out, err
		}
		out.Disk = &v
	}

	return out, out.Validate()
}

func parseBytes(key, s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	q, err := resource.ParseQuantity(s)
	if err != nil {
		return 0, domain.Validationf("%s limit %q is not numeric", key, s)
	}
	return q.Value(), nil
}
