package commands

import (
	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/manifest"
	"github.com/sqve/tandem/internal/publish"
	"github.com/sqve/tandem/internal/validation"
)

func newTryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "try [BUILD_TYPE]",
		Short: "Push the host, built against your library changes, to try",
		Long: `Publish the library's generated files to your fork, point the host at
that branch, vendor it and push the result with a try trigger commit.
Both checkouts end up exactly where they started.

Examples:
  tandem try         # Default build type
  tandem try debug   # Debug build only`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			// Completion skips PersistentPreRunE, so no config is loaded.
			return config.ValidBuildTypes(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			buildType := app.cfg.Host.DefaultBuildType
			if len(args) == 1 {
				buildType = args[0]
			}
			return runTry(app, buildType)
		},
	}
}

func runTry(app *App, buildType string) error {
	host, lib, err := app.resolver().ResolveHost(app.cwd)
	if err != nil {
		return err
	}
	unlock, err := app.lock(host.Repo, lib.Repo)
	if err != nil {
		return err
	}
	defer unlock()

	localPath, err := manifest.LocalPath(host.Declaration, lib.Root)
	if err != nil {
		return err
	}

	runner := app.runner()
	rewriter := manifest.NewRewriter(app.cfg.Library.Name, app.cfg.Library.UpstreamOrg, localPath)
	publisher := publish.New(app.cfg, lib.Repo, runner, app.log)

	res, err := validation.New(app.cfg, host, rewriter, publisher, runner, app.log).Push(buildType)
	if err != nil {
		return err
	}

	app.log.Success("Pushed %s to %s: %s", shortSHA(res.Commit), app.cfg.Host.ValidationRemote, res.Trigger)
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
