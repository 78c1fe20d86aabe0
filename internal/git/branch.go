package git

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sqve/tandem/internal/errors"
)

// CurrentBranch returns the checked out branch name. A detached HEAD yields a
// DETACHED_HEAD error.
func (r *Repo) CurrentBranch() (string, error) {
	branch, err := r.Capture("symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return "", errors.ErrDetached(r.path, err)
	}
	return branch, nil
}

// BranchExists reports whether a local branch with the given name exists.
func (r *Repo) BranchExists(name string) (bool, error) {
	repo, err := r.open()
	if err != nil {
		return false, err
	}

	_, err = repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up branch %s", name)
	}
	return true, nil
}

// ListBranches returns local branch names sorted by git.
func (r *Repo) ListBranches() ([]string, error) {
	out, err := r.Capture("for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}

	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

func (r *Repo) CreateBranch(name string) error {
	return r.Run("checkout", "--quiet", "-b", name)
}

func (r *Repo) Checkout(name string) error {
	return r.Run("checkout", "--quiet", name)
}

func (r *Repo) DeleteBranch(name string) error {
	return r.Run("branch", "--quiet", "-D", name)
}
