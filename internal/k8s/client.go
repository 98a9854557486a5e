package k8s

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"mesh-worker-go/api/v1alpha1"
)

// Client wraps the controller-runtime client used for Functions, StatefulSets and Pods
type Client struct {
	client.Client
	namespace string
}

// RestConfig builds the cluster connection config (in-cluster or from kubeconfig)
func RestConfig(inCluster bool, kubeConfigPath string) (*rest.Config, error) {
	if inCluster {
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster config: %w", err)
		}
		return config, nil
	}

	if kubeConfigPath == "" {
		kubeConfigPath = clientcmd.RecommendedHomeFile
	}
	config, err := clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubeconfig: %w", err)
	}
	return config, nil
}

// NewClient creates a new Kubernetes client that knows the Function type
func NewClient(namespace string, inCluster bool, kubeConfigPath string) (*Client, error) {
	config, err := RestConfig(inCluster, kubeConfigPath)
	if err != nil {
		return nil, err
	}
	return NewClientForConfig(config, namespace)
}

// NewClientForConfig creates a client from an existing rest config
func NewClientForConfig(config *rest.Config, namespace string) (*Client, error) {
	c, err := client.New(config, client.Options{Scheme: v1alpha1.Scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create K8s client: %w", err)
	}

	return &Client{
		Client:    c,
		namespace: namespace,
	}, nil
}

// GetNamespace returns the configured namespace
func (c *Client) GetNamespace() string {
	return c.namespace
}
