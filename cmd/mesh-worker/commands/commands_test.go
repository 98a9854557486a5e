package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"mesh-worker-go/api/v1alpha1"
	"mesh-worker-go/internal/config"
	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/labels"
)

func testConfig() *config.Config {
	return &config.Config{
		K8sNamespace: "functions",
		ClusterName:  "pulsar",
		MinResources: domain.ResourceValues{CPU: 1, RAM: 1 << 30, Disk: 10 << 30},
		MaxResources: domain.ResourceValues{CPU: 16, RAM: 32 << 30, Disk: 100 << 30},
	}
}

func writeDefinition(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "def.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "mesh-worker", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "render"}, names)
}

func TestRender_FileFlag(t *testing.T) {
	cmd := Render()

	flag := cmd.Flags().Lookup("file")
	require.NotNil(t, flag, "file flag should exist")
	assert.Equal(t, "f", flag.Shorthand)
	_, required := flag.Annotations[cobra.BashCompOneRequiredFlag]
	assert.True(t, required)
}

func TestRender(t *testing.T) {
	path := writeDefinition(t, `
tenant: public
namespace: default
name: word-count
runtime: JAVA
artifact: function://public/default/word-count@1.0
className: org.example.WordCount
inputs:
  persistent://public/default/in: {}
output: persistent://public/default/out
parallelism: 2
resources:
  cpu: 32
`)
	var out bytes.Buffer

	require.NoError(t, render(&out, path, testConfig()))

	var fn v1alpha1.Function
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &fn))
	id := domain.Identity{Tenant: "public", Namespace: "default", Name: "word-count"}
	assert.Equal(t, "Function", fn.Kind)
	assert.Equal(t, labels.ObjectName(id), fn.Name)
	assert.Equal(t, "functions", fn.Namespace)
	assert.Equal(t, labels.ManagedByMeshWorker, fn.Labels[labels.KeyManagedBy])
	assert.Equal(t, int32(2), *fn.Spec.Replicas)
	assert.Equal(t, "16", fn.Spec.Resources.Limits["cpu"])
	assert.Equal(t, "pulsar", fn.Spec.ClusterName)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected error
	}{
		{"unknown field", "tenant: public\nbogus: 1\n", domain.ErrValidation},
		{"invalid definition", "tenant: public\nnamespace: default\nname: wc\n", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := render(&bytes.Buffer{}, writeDefinition(t, tt.body), testConfig())
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	err := render(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.yaml"), testConfig())
	assert.ErrorContains(t, err, "failed to read definition")
}

func TestWorkerConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ServiceAccountName = "fn-sa"
	cfg.InstanceGRPCPort = 9093

	wc := workerConfig(cfg)

	assert.Equal(t, "functions", wc.Namespace)
	assert.Equal(t, 9093, wc.GRPCPort)
	assert.Equal(t, "pulsar", wc.Defaults.ClusterName)
	assert.Equal(t, "fn-sa", wc.Defaults.ServiceAccountName)
	assert.Equal(t, cfg.ResourceBounds(), wc.Bounds)
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := setupLogger(&config.Config{LogLevel: "debug", LogFormat: format, AppName: "mesh-worker"})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1))
	}
}
