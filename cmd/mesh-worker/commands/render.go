package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"mesh-worker-go/internal/config"
	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/reconciler"
	"mesh-worker-go/internal/translator"
)

// Render returns the command printing the Function a definition would reconcile to.
//
// It needs no cluster access. Resource bounds and defaults come from the same
// configuration as serve.
func Render() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the Function resource for a workload definition",
		Long: `Translate a workload definition into the Function resource serve would write.

The definition file is YAML or JSON and carries tenant, namespace and name.

Examples:
  mesh-worker render -f word-count.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return render(cmd.OutOrStdout(), file, cfg)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the workload definition")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func render(out io.Writer, path string, cfg *config.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read definition: %w", err)
	}
	var def domain.WorkloadDefinition
	if err := yaml.UnmarshalStrict(data, &def); err != nil {
		return fmt.Errorf("%w: failed to parse definition %s: %w", domain.ErrValidation, path, err)
	}

	t := translator.New(cfg.ResourceBounds(), workerConfig(cfg).Defaults)
	spec, err := t.ToClusterSpec(&def)
	if err != nil {
		return err
	}

	manifest, err := yaml.Marshal(reconciler.Desired(def.Identity, cfg.K8sNamespace, spec))
	if err != nil {
		return fmt.Errorf("failed to encode function: %w", err)
	}
	_, err = out.Write(manifest)
	return err
}
