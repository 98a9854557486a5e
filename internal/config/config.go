package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"sigs.k8s.io/yaml"

	"mesh-worker-go/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort       string
	ServerHost       string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// Kubernetes configuration
	K8sNamespace      string
	K8sInCluster      bool
	K8sKubeConfigPath string
	ClusterDomain     string

	// Function defaults
	ClusterName        string
	ServiceAccountName string

	// Instance queries
	InstanceGRPCPort     int
	InstanceQueryTimeout time.Duration
	AggregateDeadline    time.Duration

	// Resource policy. Every reconciled resource lies in [MinResources, MaxResources].
	MinResources     domain.ResourceValues
	MaxResources     domain.ResourceValues
	DefaultResources domain.Resources

	// WorkerConfigFile is an optional YAML file overlaying the resource policy
	WorkerConfigFile string

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Application metadata
	AppName    string
	AppVersion string
}

// Load loads configuration from environment variables, then applies the
// worker config file if WORKER_CONFIG_FILE is set.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "6750"),
		ServerHost:           getEnv("SERVER_HOST", "0.0.0.0"),
		HTTPReadTimeout:      getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout:     getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		K8sNamespace:         getEnv("K8S_NAMESPACE", "default"),
		K8sInCluster:         getEnvBool("K8S_IN_CLUSTER", false),
		K8sKubeConfigPath:    getEnv("K8S_KUBECONFIG_PATH", ""),
		ClusterDomain:        getEnv("CLUSTER_DOMAIN", "cluster.local"),
		ClusterName:          getEnv("CLUSTER_NAME", ""),
		ServiceAccountName:   getEnv("SERVICE_ACCOUNT_NAME", ""),
		InstanceGRPCPort:     getEnvInt("INSTANCE_GRPC_PORT", 9093),
		InstanceQueryTimeout: getEnvDuration("INSTANCE_QUERY_TIMEOUT", 5*time.Second),
		AggregateDeadline:    getEnvDuration("AGGREGATE_DEADLINE", 10*time.Second),
		MinResources: domain.ResourceValues{
			CPU:  getEnvFloat("MIN_CPU", 1.0),
			RAM:  getEnvInt64("MIN_RAM", 1<<30),
			Disk: getEnvInt64("MIN_DISK", 10<<30),
		},
		MaxResources: domain.ResourceValues{
			CPU:  getEnvFloat("MAX_CPU", 16),
			RAM:  getEnvInt64("MAX_RAM", 32<<30),
			Disk: getEnvInt64("MAX_DISK", 100<<30),
		},
		DefaultResources: domain.Resources{
			CPU:  getEnvOptionalFloat("DEFAULT_CPU"),
			RAM:  getEnvOptionalInt64("DEFAULT_RAM"),
			Disk: getEnvOptionalInt64("DEFAULT_DISK"),
		},
		WorkerConfigFile: getEnv("WORKER_CONFIG_FILE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		AppName:          "mesh-worker",
		AppVersion:       getEnv("APP_VERSION", "dev"),
	}

	if cfg.WorkerConfigFile != "" {
		if err := cfg.applyFile(cfg.WorkerConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var errs []error

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("invalid log format: %s (must be json/console)", c.LogFormat))
	}
	if c.InstanceGRPCPort <= 0 || c.InstanceGRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid INSTANCE_GRPC_PORT: %d", c.InstanceGRPCPort))
	}
	if c.InstanceQueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("INSTANCE_QUERY_TIMEOUT must be positive"))
	}
	if c.AggregateDeadline <= 0 {
		errs = append(errs, fmt.Errorf("AGGREGATE_DEADLINE must be positive"))
	}
	if c.K8sNamespace == "" {
		errs = append(errs, fmt.Errorf("K8S_NAMESPACE is required"))
	}
	if err := c.ResourceBounds().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.DefaultResources.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid default resources: %w", err))
	}

	return errors.Join(errs...)
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.ServerHost + ":" + c.ServerPort
}

// ResourceBounds returns the configured resource policy.
func (c *Config) ResourceBounds() domain.ResourceBounds {
	return domain.ResourceBounds{Min: c.MinResources, Max: c.MaxResources}
}

// fileResources is one resource block of the worker config file.
type fileResources struct {
	CPU  *float64 `json:"cpu,omitempty"`
	RAM  *int64   `json:"ram,omitempty"`
	Disk *int64   `json:"disk,omitempty"`
}

// fileConfig is the worker config file layout.
type fileConfig struct {
	FunctionInstanceMinResources     *fileResources `json:"functionInstanceMinResources,omitempty"`
	FunctionInstanceMaxResources     *fileResources `json:"functionInstanceMaxResources,omitempty"`
	FunctionInstanceDefaultResources *fileResources `json:"functionInstanceDefaultResources,omitempty"`
	ClusterName                      string         `json:"clusterName,omitempty"`
	ServiceAccountName               string         `json:"serviceAccountName,omitempty"`
}

// applyFile overlays values present in the YAML file at path.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read worker config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return fmt.Errorf("failed to parse worker config %s: %w", path, err)
	}

	if r := fc.FunctionInstanceMinResources; r != nil {
		overlayValues(&c.MinResources, r)
	}
	if r := fc.FunctionInstanceMaxResources; r != nil {
		overlayValues(&c.MaxResources, r)
	}
	if r := fc.FunctionInstanceDefaultResources; r != nil {
		if r.CPU != nil {
			c.DefaultResources.CPU = r.CPU
		}
		if r.RAM != nil {
			c.DefaultResources.RAM = r.RAM
		}
		if r.Disk != nil {
			c.DefaultResources.Disk = r.Disk
		}
	}
	if fc.ClusterName != "" {
		c.ClusterName = fc.ClusterName
	}
	if fc.ServiceAccountName != "" {
		c.ServiceAccountName = fc.ServiceAccountName
	}
	return nil
}

func overlayValues(dst *domain.ResourceValues, r *fileResources) {
	if r.CPU != nil {
		dst.CPU = *r.CPU
	}
	if r.RAM != nil {
		dst.RAM = *r.RAM
	}
	if r.Disk != nil {
		dst.Disk = *r.Disk
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return defaultVal
		}
		return b
	}
	return defaultVal
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal
		}
		return i
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := getEnvOptionalInt64(key); v != nil {
		return *v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := getEnvOptionalFloat(key); v != nil {
		return *v
	}
	return defaultVal
}

// getEnvOptionalInt64 returns nil when the variable is unset or not an integer
func getEnvOptionalInt64(key string) *int64 {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil
	}
	return &i
}

// getEnvOptionalFloat returns nil when the variable is unset or not a number
func getEnvOptionalFloat(key string) *float64 {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return &f
}

// getEnvDuration retrieves a duration environment variable or returns a default value
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return defaultVal
		}
		return d
	}
	return defaultVal
}
