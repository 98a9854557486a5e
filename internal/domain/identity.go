package domain

import "errors"

// Identity addresses one workload: tenant, namespace and name.
type Identity struct {
	Tenant    string `json:"tenant"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Validate checks that every identity part is present.
func (id Identity) Validate() error {
	var errs []error
	if id.Tenant == "" {
		errs = append(errs, Validationf("tenant is required"))
	}
	if id.Namespace == "" {
		errs = append(errs, Validationf("namespace is required"))
	}
	if id.Name == "" {
		errs = append(errs, Validationf("name is required"))
	}
	return errors.Join(errs...)
}

// String returns tenant/namespace/name.
func (id Identity) String() string {
	return id.Tenant + "/" + id.Namespace + "/" + id.Name
}
