package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/git"
	"github.com/sqve/tandem/internal/manifest"
	"github.com/sqve/tandem/internal/workspace"
)

// Severity represents the severity level of a doctor issue
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// Issue represents a single diagnostic issue found by doctor
type Issue struct {
	Severity Severity
	Message  string
	FixHint  string
	// fix repairs the issue; nil when it needs a human.
	fix func() error
}

func (i Issue) AutoFixable() bool {
	return i.fix != nil
}

func newDoctorCmd(app *App) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Find leftovers of interrupted runs",
		Long: `Check both checkouts for state an interrupted tandem run can leave behind:
disposable generated branches, an edited ignore file, and paused git
operations. Also warns when the host does not use the official dependency.

Examples:
  tandem doctor         # Report issues
  tandem doctor --fix   # Repair what can be repaired safely`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(app, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Repair issues that are safe to repair")

	return cmd
}

func runDoctor(app *App, fix bool) error {
	resolver := app.resolver()

	var issues []Issue
	host, hostErr := resolver.FindHost(app.cwd)
	lib, libErr := resolver.FindLibrary(app.cwd)
	if hostErr != nil && libErr != nil {
		return libErr
	}

	if libErr == nil {
		found, err := libraryIssues(app, lib)
		if err != nil {
			return err
		}
		issues = append(issues, found...)
	}
	if hostErr == nil {
		found, err := hostIssues(app, host)
		if err != nil {
			return err
		}
		issues = append(issues, found...)
	}

	if len(issues) == 0 {
		app.log.Success("No issues found")
		return nil
	}

	if fix && libErr == nil {
		unlock, err := app.lock(lib.Repo)
		if err != nil {
			return err
		}
		defer unlock()
	}

	remaining := 0
	for _, issue := range issues {
		if fix && issue.AutoFixable() {
			if err := issue.fix(); err != nil {
				app.log.Error("Could not fix: %s: %v", issue.Message, err)
				remaining++
				continue
			}
			app.log.Success("Fixed: %s", issue.Message)
			continue
		}

		hint := issue.FixHint
		if !fix && issue.AutoFixable() {
			hint = "run 'tandem doctor --fix'"
		}
		if issue.Severity == SeverityError {
			app.log.Error("%s (%s)", issue.Message, hint)
			remaining++
		} else {
			app.log.Warning("%s (%s)", issue.Message, hint)
		}
	}

	if remaining > 0 {
		return errors.ErrEnvironmentf("%d problem(s) need attention", remaining)
	}
	return nil
}

func libraryIssues(app *App, lib *workspace.Library) ([]Issue, error) {
	repo := lib.Repo
	var issues []Issue

	if issue, err := operationIssue(repo, "library"); err != nil || issue != nil {
		if err != nil {
			return nil, err
		}
		// Branch surgery during a paused operation would make things worse.
		return []Issue{*issue}, nil
	}

	ignoreFile := app.cfg.Library.IgnoreFile
	changed, err := repo.FileChanged(ignoreFile)
	if err != nil {
		return nil, err
	}
	if changed {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s differs from HEAD in %s", ignoreFile, lib.Root),
			FixHint:  fmt.Sprintf("restore it with 'git checkout HEAD -- %s'", ignoreFile),
			fix: func() error {
				return repo.Run("checkout", "HEAD", "--", filepath.ToSlash(ignoreFile))
			},
		})
	}

	branches, err := repo.ListBranches()
	if err != nil {
		return nil, err
	}
	current, err := repo.CurrentBranch()
	if err != nil && !errors.IsTandemError(err, errors.ErrCodeDetachedHead) {
		return nil, err
	}

	suffix := app.cfg.Library.BranchSuffix
	for _, branch := range branches {
		base, ok := strings.CutSuffix(branch, suffix)
		if !ok || base == "" {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("stale branch %s in %s", branch, lib.Root),
			FixHint:  fmt.Sprintf("delete it with 'git branch -D %s'", branch),
			fix: func() error {
				if current == branch {
					if err := repo.Run("reset", "--quiet"); err != nil {
						return err
					}
					if err := repo.Checkout(base); err != nil {
						return err
					}
				}
				return repo.DeleteBranch(branch)
			},
		})
	}

	return issues, nil
}

func hostIssues(app *App, host *workspace.Host) ([]Issue, error) {
	if issue, err := operationIssue(host.Repo, "host"); err != nil || issue != nil {
		if err != nil {
			return nil, err
		}
		return []Issue{*issue}, nil
	}

	mode, err := detectMode(app, host.Declaration)
	if err != nil {
		return []Issue{{
			Severity: SeverityError,
			Message:  err.Error(),
			FixHint:  fmt.Sprintf("restore it with 'git checkout HEAD -- %s'", app.cfg.Host.Declaration),
		}}, nil
	}
	if _, ok := mode.(manifest.Official); !ok {
		return []Issue{{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s uses %s", app.cfg.Host.Declaration, mode),
			FixHint:  "run 'tandem cargo official' before committing",
		}}, nil
	}
	return nil, nil
}

func operationIssue(repo *git.Repo, label string) (*Issue, error) {
	op, err := repo.OngoingOperation()
	if err != nil || op == "" {
		return nil, err
	}
	return &Issue{
		Severity: SeverityError,
		Message:  fmt.Sprintf("%s checkout %s is in the middle of %s", label, repo.Path(), op),
		FixHint:  "finish it or abort it with git",
	}, nil
}
