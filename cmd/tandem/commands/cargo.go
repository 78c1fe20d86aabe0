package commands

import (
	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/manifest"
	"github.com/sqve/tandem/internal/workspace"
)

func newCargoCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cargo",
		Short: "Switch the host's library dependency",
		Long: `Switch which copy of the library the host's dependency declaration uses.

Examples:
  tandem cargo local                  # Build against the sibling checkout
  tandem cargo official               # Restore the upstream line as committed
  tandem cargo official ci_generated  # Pin to the current ci_generated head
  tandem cargo fork alice fix-1       # Use branch fix-1 of github.com/alice/jsparagus`,
		Args: cobra.NoArgs,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "local",
			Short: "Use the local library checkout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCargo(app, manifest.Local{})
			},
		},
		&cobra.Command{
			Use:   "official [REV|ci_generated]",
			Short: "Use the upstream revision, optionally replacing it",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rev := ""
				if len(args) == 1 {
					rev = args[0]
				}
				return runCargoOfficial(app, rev)
			},
		},
		&cobra.Command{
			Use:   "fork USER BRANCH",
			Short: "Use a branch of a GitHub fork",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCargo(app, manifest.Fork{User: args[0], Branch: args[1]})
			},
		},
	)

	return cmd
}

func runCargoOfficial(app *App, rev string) error {
	if rev != config.RevCIGenerated {
		return runCargo(app, manifest.Official{Rev: rev})
	}

	lib, err := app.resolver().FindLibrary(app.cwd)
	if err != nil {
		return err
	}
	sha, err := ciGeneratedHead(app, lib)
	if err != nil {
		return err
	}
	return runCargo(app, manifest.Official{Rev: sha})
}

func runCargo(app *App, mode manifest.Mode) error {
	host, err := app.resolver().FindHost(app.cwd)
	if err != nil {
		return err
	}
	unlock, err := app.lock(host.Repo)
	if err != nil {
		return err
	}
	defer unlock()

	localPath := ""
	if _, ok := mode.(manifest.Local); ok {
		lib, err := app.resolver().FindLibrary(host.Root)
		if err != nil {
			return err
		}
		if localPath, err = manifest.LocalPath(host.Declaration, lib.Root); err != nil {
			return err
		}
	}

	rewriter := manifest.NewRewriter(app.cfg.Library.Name, app.cfg.Library.UpstreamOrg, localPath)
	res, err := rewriter.RewriteFile(host.Declaration, mode)
	if err != nil {
		return err
	}

	if res.Appended {
		app.log.Warning("No official %s line in %s; appended the override at the end", app.cfg.Library.Name, app.cfg.Host.Declaration)
	}
	if !res.Changed {
		app.log.Success("%s already uses %s", app.cfg.Host.Declaration, mode)
		return nil
	}
	app.log.Success("Switched %s to %s", app.cfg.Host.Declaration, mode)
	return nil
}

func ciGeneratedHead(app *App, lib *workspace.Library) (string, error) {
	app.log.Debug("Resolving %s on %s", app.cfg.Library.CIRef, app.cfg.Library.UpstreamRemote)
	return lib.Repo.ResolveRemoteRef(app.cfg.Library.UpstreamRemote, app.cfg.Library.CIRef)
}
