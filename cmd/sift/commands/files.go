package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/app"
)

func (c *CLI) newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <path>...",
		Short: "Show which configuration applies to each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolve, err := resolveOptions(cmd)
			if err != nil {
				return err
			}

			return c.app.Files(cmd.Context(), cmd.OutOrStdout(), app.FilesOptions{
				ResolveOptions: resolve,
				Paths:          args,
			})
		},
	}
}
