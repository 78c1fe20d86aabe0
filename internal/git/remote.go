package git

import (
	"bufio"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/sqve/tandem/internal/errors"
)

// RemoteURL returns the first configured fetch URL of the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	remote, err := repo.Remote(name)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return "", errors.ErrEnvironmentf("remote %q is not configured in %s", name, r.path)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read remote %s", name)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errors.ErrEnvironmentf("remote %q in %s has no URL", name, r.path)
	}
	return urls[0], nil
}

func (r *Repo) HasRemote(name string) (bool, error) {
	out, err := r.Capture("remote")
	if err != nil {
		return false, err
	}
	for _, remote := range strings.Fields(out) {
		if remote == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) AddRemote(name, url string) error {
	return r.Run("remote", "add", name, url)
}

// RemoteRefs lists the refs advertised by a remote as ref name to commit.
func (r *Repo) RemoteRefs(remote string) (map[string]string, error) {
	out, err := r.Capture("ls-remote", remote)
	if err != nil {
		return nil, err
	}
	return parseRemoteRefs(out)
}

// parseRemoteRefs reads ls-remote output: one "<sha>\t<ref>" pair per line.
// Blank lines are skipped; any other line that is not such a pair is a
// COMMAND error.
func parseRemoteRefs(out string) (map[string]string, error) {
	refs := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		sha, ref, ok := strings.Cut(line, "\t")
		if !ok || sha == "" || ref == "" || strings.ContainsAny(sha, " \t") || strings.Contains(ref, "\t") {
			return nil, errors.NewTandemErrorf(errors.ErrCodeCommand, nil,
				"malformed ls-remote output on line %d: %q", n, line)
		}
		refs[ref] = sha
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse remote refs")
	}

	return refs, nil
}

// ResolveRemoteRef returns the commit a remote advertises for ref. A missing
// ref yields a REMOTE_REF_NOT_FOUND error.
func (r *Repo) ResolveRemoteRef(remote, ref string) (string, error) {
	refs, err := r.RemoteRefs(remote)
	if err != nil {
		return "", err
	}

	sha, ok := refs[ref]
	if !ok {
		return "", errors.ErrRemoteRef(remote, ref)
	}
	r.log.Debug("Resolved %s %s to %s", remote, ref, sha)
	return sha, nil
}
