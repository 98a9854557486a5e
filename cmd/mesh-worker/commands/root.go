package commands

import "github.com/spf13/cobra"

var version = "dev"

// SetVersion records the build version reported by the server.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Root returns the mesh-worker root command.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "mesh-worker",
		Short:         "Register functions as cluster resources and report on their instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(Serve(), Render())
	return root
}
