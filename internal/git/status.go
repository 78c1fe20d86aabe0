package git

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/fs"
)

// Marker files git leaves in the git directory while an operation is paused.
const (
	markerMergeHead      = "MERGE_HEAD"
	markerCherryPickHead = "CHERRY_PICK_HEAD"
	markerRevertHead     = "REVERT_HEAD"
	markerRebaseMerge    = "rebase-merge"
	markerRebaseApply    = "rebase-apply"
)

// Changes lists modified tracked files. Untracked files are ignored, matching
// what a hard reset or branch switch would put at risk.
func (r *Repo) Changes() ([]string, error) {
	out, err := r.Capture("status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return nil, err
	}

	var changes []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		changes = append(changes, line)
	}
	return changes, nil
}

// AssertClean fails with a DIRTY_REPOSITORY error when tracked files have
// uncommitted modifications.
func (r *Repo) AssertClean() error {
	changes, err := r.Changes()
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		r.log.Debug("Repository %s has %d changed files", r.path, len(changes))
		return errors.ErrDirty(r.path, changes)
	}
	return nil
}

// GitDir returns the absolute path of the repository's git directory.
func (r *Repo) GitDir() (string, error) {
	return r.Capture("rev-parse", "--absolute-git-dir")
}

// OngoingOperation returns "merging", "rebasing", "cherry-picking" or
// "reverting" when git has paused an operation, or "" when none is in progress.
func (r *Repo) OngoingOperation() (string, error) {
	gitDir, err := r.GitDir()
	if err != nil {
		return "", err
	}

	if fs.PathExists(filepath.Join(gitDir, markerMergeHead)) {
		return "merging", nil
	}
	if fs.PathExists(filepath.Join(gitDir, markerRebaseMerge)) || fs.PathExists(filepath.Join(gitDir, markerRebaseApply)) {
		return "rebasing", nil
	}
	if fs.PathExists(filepath.Join(gitDir, markerCherryPickHead)) {
		return "cherry-picking", nil
	}
	if fs.PathExists(filepath.Join(gitDir, markerRevertHead)) {
		return "reverting", nil
	}

	return "", nil
}

// FileChanged reports whether the working copy of path (relative to the
// working tree) differs from HEAD.
func (r *Repo) FileChanged(path string) (bool, error) {
	out, err := r.Capture("status", "--porcelain", "--", filepath.ToSlash(path))
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// UntrackedFiles lists untracked files that are not ignored, relative to the
// working tree root.
func (r *Repo) UntrackedFiles() ([]string, error) {
	out, err := r.exec([]string{"ls-files", "--others", "--exclude-standard", "-z"})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// UntrackedSince returns the untracked files that are not in before, a
// snapshot taken earlier with UntrackedFiles.
func (r *Repo) UntrackedSince(before []string) ([]string, error) {
	now, err := r.UntrackedFiles()
	if err != nil {
		return nil, err
	}

	var created []string
	for _, f := range now {
		if !slices.Contains(before, f) {
			created = append(created, f)
		}
	}
	return created, nil
}

// addBatchSize bounds the number of paths passed to a single git add.
const addBatchSize = 200

// Add stages the given paths, relative to the working tree root.
func (r *Repo) Add(paths ...string) error {
	for len(paths) > 0 {
		n := min(len(paths), addBatchSize)
		args := append([]string{"add", "--"}, paths[:n]...)
		if err := r.Run(args...); err != nil {
			return err
		}
		paths = paths[n:]
	}
	return nil
}
