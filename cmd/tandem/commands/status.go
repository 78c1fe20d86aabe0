package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/git"
	"github.com/sqve/tandem/internal/manifest"
	"github.com/sqve/tandem/internal/styles"
)

// TreeStatus describes one checkout.
type TreeStatus struct {
	Path      string   `json:"path"`
	Branch    string   `json:"branch"`
	Detached  bool     `json:"detached"`
	Dirty     bool     `json:"dirty"`
	Changes   []string `json:"changes,omitempty"`
	Operation string   `json:"operation,omitempty"`
}

// StatusInfo is what `tandem status` reports. Either checkout may be missing
// when tandem runs from a library checkout without a host next to it.
type StatusInfo struct {
	Mode      string      `json:"mode,omitempty"`
	ModeError string      `json:"mode_error,omitempty"`
	Host      *TreeStatus `json:"host,omitempty"`
	Library   *TreeStatus `json:"library,omitempty"`
}

func newStatusCmd(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the dependency mode and the state of both checkouts",
		Long: `Show which library copy the host currently depends on, and the branch and
cleanliness of the host and library checkouts.

Examples:
  tandem status          # Human-readable summary
  tandem status --json   # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := gatherStatus(app)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputStatusJSON(app, info)
			}
			outputStatus(app, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func gatherStatus(app *App) (*StatusInfo, error) {
	info := &StatusInfo{}
	resolver := app.resolver()

	host, hostErr := resolver.FindHost(app.cwd)
	if hostErr == nil {
		tree, err := treeStatus(host.Repo)
		if err != nil {
			return nil, err
		}
		info.Host = tree

		if mode, err := detectMode(app, host.Declaration); err != nil {
			info.ModeError = err.Error()
		} else {
			info.Mode = mode.String()
		}
	}

	lib, libErr := resolver.FindLibrary(app.cwd)
	if libErr == nil {
		tree, err := treeStatus(lib.Repo)
		if err != nil {
			return nil, err
		}
		info.Library = tree
	}

	if hostErr != nil && libErr != nil {
		return nil, libErr
	}
	return info, nil
}

func detectMode(app *App, declaration string) (manifest.Mode, error) {
	content, err := os.ReadFile(declaration) //nolint:gosec // Declaration path is resolved from the host root
	if err != nil {
		return nil, errors.NewTandemError(errors.ErrCodeEnvironment, "failed to read declaration file", err).
			WithContext("path", declaration)
	}
	rewriter := manifest.NewRewriter(app.cfg.Library.Name, app.cfg.Library.UpstreamOrg, "")
	return rewriter.Detect(content)
}

func treeStatus(repo *git.Repo) (*TreeStatus, error) {
	tree := &TreeStatus{Path: repo.Path()}

	branch, err := repo.CurrentBranch()
	if err != nil {
		if !errors.IsTandemError(err, errors.ErrCodeDetachedHead) {
			return nil, err
		}
		tree.Detached = true
		tree.Branch = "(detached)"
	} else {
		tree.Branch = branch
	}

	changes, err := repo.Changes()
	if err != nil {
		return nil, err
	}
	tree.Changes = changes
	tree.Dirty = len(changes) > 0

	if tree.Operation, err = repo.OngoingOperation(); err != nil {
		return nil, err
	}
	return tree, nil
}

func outputStatusJSON(app *App, info *StatusInfo) error {
	enc := json.NewEncoder(app.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func outputStatus(app *App, info *StatusInfo) {
	plain := app.log.IsPlain()
	w := app.stdout

	if info.Host != nil {
		switch {
		case info.ModeError != "":
			fmt.Fprintf(w, "Dependency: %s\n", styles.Render(&styles.Error, info.ModeError, plain))
		case info.Mode == "local":
			fmt.Fprintf(w, "Dependency: %s\n", styles.Render(&styles.Warning, info.Mode, plain))
		default:
			fmt.Fprintf(w, "Dependency: %s\n", styles.Render(&styles.Bold, info.Mode, plain))
		}
	}
	printTree(app, "Host", info.Host)
	printTree(app, "Library", info.Library)
}

func printTree(app *App, label string, tree *TreeStatus) {
	if tree == nil {
		return
	}
	plain := app.log.IsPlain()
	w := app.stdout

	state := styles.Render(&styles.Success, "clean", plain)
	if tree.Dirty {
		state = styles.Render(&styles.Warning, fmt.Sprintf("%d changed", len(tree.Changes)), plain)
	}
	fmt.Fprintf(w, "%s: %s on %s, %s\n", label, tree.Path, styles.Render(&styles.Bold, tree.Branch, plain), state)
	if tree.Operation != "" {
		fmt.Fprintf(w, "  %s\n", styles.Render(&styles.Warning, tree.Operation+" in progress", plain))
	}
	for _, change := range tree.Changes {
		fmt.Fprintf(w, "  %s\n", styles.Render(&styles.Dimmed, change, plain))
	}
}
