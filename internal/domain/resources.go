package domain

import (
	"errors"
	"math"
)

// Resources is a per-instance resource request. A nil field is "not requested".
type Resources struct {
	CPU  *float64 `json:"cpu,omitempty"`
	RAM  *int64   `json:"ram,omitempty"`
	Disk *int64   `json:"disk,omitempty"`
}

// Validate rejects negative and non-finite values.
func (r Resources) Validate() error {
	var errs []error
	if r.CPU != nil {
		if math.IsNaN(*r.CPU) || math.IsInf(*r.CPU, 0) {
			errs = append(errs, Validationf("cpu is not a number"))
		} else if *r.CPU < 0 {
			errs = append(errs, Validationf("cpu must not be negative, got %g", *r.CPU))
		}
	}
	if r.RAM != nil && *r.RAM < 0 {
		errs = append(errs, Validationf("ram must not be negative, got %d", *r.RAM))
	}
	if r.Disk != nil && *r.Disk < 0 {
		errs = append(errs, Validationf("disk must not be negative, got %d", *r.Disk))
	}
	return errors.Join(errs...)
}

// ResourceValues is a fully populated resource triple. RAM and Disk are bytes.
type ResourceValues struct {
	CPU  float64 `json:"cpu"`
	RAM  int64   `json:"ram"`
	Disk int64   `json:"disk"`
}

// ResourceBounds is the inclusive [Min, Max] range every reconciled resource lies in.
type ResourceBounds struct {
	Min ResourceValues `json:"min"`
	Max ResourceValues `json:"max"`
}

// Validate checks that each field's range is non-empty and non-negative.
func (b ResourceBounds) Validate() error {
	var errs []error
	if b.Min.CPU < 0 || b.Min.RAM < 0 || b.Min.Disk < 0 {
		errs = append(errs, Validationf("resource minimums must not be negative"))
	}
	if b.Min.CPU > b.Max.CPU {
		errs = append(errs, Validationf("min cpu %g exceeds max cpu %g", b.Min.CPU, b.Max.CPU))
	}
	if b.Min.RAM > b.Max.RAM {
		errs = append(errs, Validationf("min ram %d exceeds max ram %d", b.Min.RAM, b.Max.RAM))
	}
	if b.Min.Disk > b.Max.Disk {
		errs = append(errs, Validationf("min disk %d exceeds max disk %d", b.Min.Disk, b.Max.Disk))
	}
	return errors.Join(errs...)
}
