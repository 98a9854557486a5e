package domain

import (
	"encoding/json"
	"fmt"
)

// Well-known custom runtime option keys. Values for fields the cluster spec carries
// directly (cluster name, autoscale ceiling, execution identity) travel under these keys.
const (
	OptionClusterName        = "clusterName"
	OptionMaxReplicas        = "maxReplicas"
	OptionServiceAccountName = "serviceAccountName"
)

// RuntimeOptions is the opaque key-value document attached to a workload.
type RuntimeOptions map[string]string

// Encode serializes the options as a JSON document. Empty options encode to "".
func (o RuntimeOptions) Encode() (string, error) {
	if len(o) == 0 {
		return "", nil
	}
	b, err := json.Marshal(map[string]string(o))
	if err != nil {
		return "", fmt.Errorf("failed to encode custom runtime options: %w", err)
	}
	return string(b), nil
}

// DecodeRuntimeOptions parses a document produced by Encode.
func DecodeRuntimeOptions(doc string) (RuntimeOptions, error) {
	if doc == "" {
		return nil, nil
	}
	var opts map[string]string
	if err := json.Unmarshal([]byte(doc), &opts); err != nil {
		return nil, Validationf("custom runtime options are not a JSON object of strings: %v", err)
	}
	if len(opts) == 0 {
		return nil, nil
	}
	return opts, nil
}

// Clone returns an independent copy.
func (o RuntimeOptions) Clone() RuntimeOptions {
	if o == nil {
		return nil
	}
	out := make(RuntimeOptions, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
