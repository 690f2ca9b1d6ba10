package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/app"
)

func (c *CLI) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolve, err := resolveOptions(cmd)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			watch, _ := cmd.Flags().GetBool("watch")

			return c.app.Config(cmd.Context(), cmd.OutOrStdout(), app.ConfigOptions{
				ResolveOptions: resolve,
				Format:         format,
				Watch:          watch,
			})
		},
	}

	cmd.Flags().StringP("format", "f", "yaml", "Output format: yaml, json or toml")
	cmd.Flags().BoolP("watch", "w", false, "Print the configuration again whenever one of its files changes")

	return cmd
}
