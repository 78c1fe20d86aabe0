// Package publish pushes the library's generated artifacts to a disposable
// branch of the operator's fork without leaving any trace in the local
// checkout.
package publish

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/fs"
	"github.com/sqve/tandem/internal/git"
	"github.com/sqve/tandem/internal/github"
	"github.com/sqve/tandem/internal/hooks"
	"github.com/sqve/tandem/internal/logger"
	"github.com/sqve/tandem/internal/txn"
)

const totalSteps = 5

// Result identifies the pushed branch on the fork.
type Result struct {
	ForkUser string
	Repo     string
	Branch   string
	Commit   string // generated-artifacts commit, gone from the local checkout afterwards
}

// URL points a browser at the pushed branch.
func (r *Result) URL() string {
	return github.TreeURL(r.ForkUser, r.Repo, r.Branch)
}

type Publisher struct {
	cfg    *config.Config
	repo   *git.Repo
	runner *hooks.Runner
	log    *logger.Logger
}

func New(cfg *config.Config, repo *git.Repo, runner *hooks.Runner, log *logger.Logger) *Publisher {
	return &Publisher{cfg: cfg, repo: repo, runner: runner, log: log}
}

// Publish generates the library's derived files, commits them on a
// disposable branch and force-pushes that branch to the fork. Every local
// step is undone before Publish returns, whether it succeeds or not: the
// checkout ends on its original branch and commit with a clean index.
func (p *Publisher) Publish() (res *Result, err error) {
	lib := p.cfg.Library

	if err := p.repo.AssertClean(); err != nil {
		return nil, err
	}
	base, err := p.repo.CurrentBranch()
	if err != nil {
		return nil, err
	}

	branch := p.cfg.DisposableBranch(base)
	exists, err := p.repo.BranchExists(branch)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewTandemErrorf(errors.ErrCodeDirtyRepository, nil,
			"branch %s is left over from an interrupted run; run 'tandem doctor --fix' or delete it", branch).
			WithContext("path", p.repo.Path()).
			WithContext("branch", branch)
	}

	forkURL, err := p.repo.RemoteURL(lib.ForkRemote)
	if err != nil {
		return nil, err
	}
	fork, err := github.ParseRepoURL(forkURL)
	if err != nil {
		return nil, err
	}

	untracked, err := p.repo.UntrackedFiles()
	if err != nil {
		return nil, err
	}

	undo := txn.New(p.log)
	defer undo.Finish(&err)

	p.log.Step(1, totalSteps, "Creating branch %s", branch)
	if err := p.repo.CreateBranch(branch); err != nil {
		return nil, err
	}
	undo.Push("delete branch "+branch, func() error { return p.repo.DeleteBranch(branch) })
	undo.Push("check out "+base, func() error { return p.repo.Checkout(base) })
	undo.Push("discard changes to tracked files", func() error { return p.repo.Run("reset", "--hard", "--quiet") })

	p.log.Step(2, totalSteps, "Running %s", lib.GenerateCommand)
	if err := p.runner.Run(p.repo.Path(), lib.GenerateCommand); err != nil {
		return nil, err
	}

	p.log.Step(3, totalSteps, "Un-ignoring %s in %s", lib.GeneratedPattern, lib.IgnoreFile)
	if err := p.unignore(undo); err != nil {
		return nil, err
	}

	p.log.Step(4, totalSteps, "Committing generated files")
	if err := p.stageGenerated(untracked); err != nil {
		return nil, err
	}
	undo.Push("unstage generated files", func() error { return p.repo.Run("reset", "--quiet") })

	if err := p.repo.Run("commit", "--quiet", "--no-verify", "-m", lib.CommitMessage); err != nil {
		return nil, err
	}
	undo.Push("undo generated commit", func() error { return p.repo.Run("reset", "--soft", "--quiet", "HEAD~1") })

	commit, err := p.repo.HeadSHA()
	if err != nil {
		return nil, err
	}

	p.log.Step(5, totalSteps, "Pushing %s to %s", branch, lib.ForkRemote)
	if err := p.repo.Run("push", "--force", "--quiet", lib.ForkRemote, branch); err != nil {
		return nil, err
	}

	return &Result{
		ForkUser: fork.Owner,
		Repo:     fork.Repo,
		Branch:   branch,
		Commit:   commit,
	}, nil
}

// stageGenerated stages the ignore file edit plus files that appeared since
// before. The user's own untracked files never reach the fork.
func (p *Publisher) stageGenerated(before []string) error {
	if err := p.repo.Run("add", "--update"); err != nil {
		return err
	}
	created, err := p.repo.UntrackedSince(before)
	if err != nil {
		return err
	}
	return p.repo.Add(created...)
}

// unignore comments out the generated-file pattern in the ignore file. The
// original bytes are restored on unwind.
func (p *Publisher) unignore(undo *txn.Stack) error {
	lib := p.cfg.Library
	path := filepath.Join(p.repo.Path(), filepath.FromSlash(lib.IgnoreFile))

	original, err := os.ReadFile(path) //nolint:gosec // Path is inside the library checkout
	if os.IsNotExist(err) {
		p.log.Warning("%s does not exist; committing generated files as they are", lib.IgnoreFile)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", lib.IgnoreFile)
	}

	edited, n := Unignore(original, lib.GeneratedPattern)
	if n == 0 {
		p.log.Warning("%s does not list %s", lib.IgnoreFile, lib.GeneratedPattern)
		return nil
	}

	undo.Push("restore "+lib.IgnoreFile, func() error { return fs.ReplaceFile(path, original) })
	return fs.ReplaceFile(path, edited)
}

// Unignore comments out every line of an ignore file that is exactly
// pattern, ignoring surrounding whitespace. It returns the edited content and
// the number of lines changed.
func Unignore(content []byte, pattern string) ([]byte, int) {
	lines := strings.SplitAfter(string(content), "\n")
	n := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == pattern {
			lines[i] = "#" + line
			n++
		}
	}
	return []byte(strings.Join(lines, "")), n
}
