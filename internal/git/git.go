package git

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/fs"
	"github.com/sqve/tandem/internal/logger"
)

// Repo is a handle on a single git working tree. It keeps no git state
// between calls: every query runs git (or re-reads the repository through
// go-git) so results always reflect the tree on disk.
type Repo struct {
	path string
	log  *logger.Logger
}

// Open returns a handle for the working tree at path. The path must contain
// a .git directory (or a .git file, for linked worktrees).
func Open(path string, log *logger.Logger) (*Repo, error) {
	if path == "" {
		return nil, errors.ErrEnvironmentf("repository path cannot be empty")
	}
	if log == nil {
		log = logger.Discard()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if !fs.PathExists(filepath.Join(absPath, ".git")) {
		return nil, errors.ErrNotRepository(absPath)
	}

	return &Repo{path: absPath, log: log}, nil
}

// Path returns the absolute path of the working tree.
func (r *Repo) Path() string {
	return r.path
}

// Run executes git with args in the working tree, discarding stdout.
func (r *Repo) Run(args ...string) error {
	_, err := r.exec(args)
	return err
}

// Capture executes git with args and returns stdout without the trailing
// newline.
func (r *Repo) Capture(args ...string) (string, error) {
	out, err := r.exec(args)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\r\n"), nil
}

func (r *Repo) exec(args []string) (string, error) {
	r.log.Debug("Executing: %s in %s", logger.CommandLine("git", args), r.path)
	start := time.Now()

	cmd := exec.Command("git", args...) //nolint:gosec // Arguments are built by tandem, not a shell
	cmd.Dir = r.path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			err = nil
		}
		r.log.Debug("git %s failed after %s: %s", args[0], time.Since(start).Round(time.Millisecond), strings.TrimSpace(stderr.String()))
		return stdout.String(), errors.ErrCommandFailed("git", args, exitCode, stderr.String(), err)
	}

	return stdout.String(), nil
}

// open reads the repository through go-git for read-only inspection.
func (r *Repo) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(r.path, &gogit.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open repository %s", r.path)
	}
	return repo, nil
}

// HeadSHA returns the commit HEAD points at.
func (r *Repo) HeadSHA() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	ref, err := repo.Head()
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve HEAD in %s", r.path)
	}

	return ref.Hash().String(), nil
}
