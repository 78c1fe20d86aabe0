package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/workspace"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tandem configuration",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write a commented .tandem.toml to the current checkout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigInit(app)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(app, cmd)
			},
		},
	)

	return cmd
}

func runConfigInit(app *App) error {
	root, err := workspace.FindRepoRoot(app.cwd)
	if err != nil {
		return err
	}

	path, err := config.WriteTemplateToFile(root)
	if err != nil {
		return err
	}
	app.log.Success("Created %s", path)
	return nil
}

func runConfigShow(app *App, cmd *cobra.Command) error {
	if used := config.UsedFile(app.configOptions(cmd)); used != "" {
		app.log.Info("Loaded from %s", used)
	} else {
		app.log.Info("No config file found; showing defaults")
	}

	data, err := config.Encode(app.cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = app.stdout.Write(data)
	return err
}
