package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/publish"
)

func newGenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "gen",
		Short: "Publish generated library files to your fork",
		Long: `Run the library's generate command, commit the output on a disposable
branch and force-push it to your fork. The checkout is left on its original
branch with a clean tree.

The branch URL is printed on stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(app)
		},
	}
}

func runGen(app *App) error {
	lib, err := app.resolver().FindLibrary(app.cwd)
	if err != nil {
		return err
	}
	unlock, err := app.lock(lib.Repo)
	if err != nil {
		return err
	}
	defer unlock()

	res, err := publish.New(app.cfg, lib.Repo, app.runner(), app.log).Publish()
	if err != nil {
		return err
	}

	app.log.Info("Use it from the host with: tandem cargo fork %s %s", res.ForkUser, res.Branch)
	fmt.Fprintln(app.stdout, res.URL())
	return nil
}
