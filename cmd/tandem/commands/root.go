// Package commands implements the tandem command-line interface.
package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/git"
	"github.com/sqve/tandem/internal/hooks"
	"github.com/sqve/tandem/internal/logger"
	"github.com/sqve/tandem/internal/workspace"
)

const Version = "v0.1.0"

// App carries what every command needs once the root command has loaded
// configuration. Nothing here is global; NewRootCmd builds a fresh App.
type App struct {
	cfg *config.Config
	log *logger.Logger
	cwd string

	configFile string
	stdout     io.Writer
	stderr     io.Writer
}

// NewRootCmd creates the tandem root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tandem",
		Short:   "Develop jsparagus and mozilla-central side by side",
		Version: Version,
		Long: `Tandem switches the host's jsparagus dependency between your local checkout,
the official upstream revision and a branch of your fork, and pushes both
trees to the try server in one step.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	rootCmd.PersistentFlags().Bool("plain", false, "Disable colors and symbols")
	rootCmd.PersistentFlags().Bool("debug", false, "Print every git command")
	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "Config file (default: .tandem.toml in the checkout)")

	rootCmd.AddCommand(
		newCargoCmd(app),
		newTryCmd(app),
		newGenCmd(app),
		newCIGeneratedHeadCmd(app),
		newStatusCmd(app),
		newDoctorCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}

// init loads configuration and builds the logger. It runs before every
// subcommand.
func (a *App) init(cmd *cobra.Command) error {
	if a.stdout == nil {
		a.stdout = cmd.OutOrStdout()
	}
	if a.stderr == nil {
		a.stderr = cmd.ErrOrStderr()
	}

	if a.cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return errors.NewTandemError(errors.ErrCodeEnvironment, "failed to get current directory", err)
		}
		a.cwd = cwd
	}

	cfg, err := config.Load(a.configOptions(cmd))
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.New(logger.Options{
		Stdout: a.stdout,
		Stderr: a.stderr,
		Plain:  cfg.Output.Plain || !isTerminal(a.stderr),
		Debug:  cfg.Output.Debug,
	})
	if used := config.UsedFile(a.configOptions(cmd)); used != "" {
		a.log.Debug("Using config file %s", used)
	}
	return nil
}

func (a *App) configOptions(cmd *cobra.Command) config.Options {
	opts := config.Options{File: a.configFile, Flags: cmd.Flags()}
	if opts.File == "" {
		// The nearest checkout root is either the host or the library.
		root, _ := workspace.FindRepoRoot(a.cwd)
		opts.Dirs = config.SearchDirs(root)
	}
	return opts
}

func (a *App) resolver() *workspace.Resolver {
	return workspace.NewResolver(a.cfg, a.log)
}

func (a *App) runner() *hooks.Runner {
	return hooks.NewRunner(a.log)
}

// lock holds the run lock of every repo until the returned function is
// called. On failure no lock is left behind.
func (a *App) lock(repos ...*git.Repo) (func(), error) {
	var locks []*workspace.Lock
	release := func() {
		for i := len(locks) - 1; i >= 0; i-- {
			if err := locks[i].Release(); err != nil {
				a.log.Warning("Failed to release lock: %v", err)
			}
		}
	}

	for _, repo := range repos {
		l, err := workspace.AcquireLock(repo, a.log)
		if err != nil {
			release()
			return nil, err
		}
		locks = append(locks, l)
	}
	return release, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && logger.IsTerminal(f)
}

// Execute runs the root command and reports a failure once on stderr. It
// returns the process exit code.
func Execute(args []string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	plain, _ := cmd.Flags().GetBool("plain")
	printError(cmd.ErrOrStderr(), err, plain || !isTerminal(cmd.ErrOrStderr()))
	return 1
}
