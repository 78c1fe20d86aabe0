package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCIGeneratedHeadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ci-generated-head",
		Short: "Print the commit the upstream ci_generated branch points at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := app.resolver().FindLibrary(app.cwd)
			if err != nil {
				return err
			}
			sha, err := ciGeneratedHead(app, lib)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, sha)
			return nil
		},
	}
}
