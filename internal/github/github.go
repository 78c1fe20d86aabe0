package github

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqve/tandem/internal/errors"
)

// RepoRef holds owner and repo parsed from a remote URL.
type RepoRef struct {
	Owner string
	Repo  string
}

var (
	sshURLRegex       = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshSchemeURLRegex = regexp.MustCompile(`^ssh://git@github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	httpsURLRegex     = regexp.MustCompile(`^https?://(?:[^@/]+@)?github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// ParseRepoURL extracts owner/repo from a git remote URL. Anything that is not
// a github.com repository URL yields a REMOTE_URL_PARSE error.
func ParseRepoURL(url string) (*RepoRef, error) {
	url = strings.TrimSpace(url)

	for _, re := range []*regexp.Regexp{sshURLRegex, sshSchemeURLRegex, httpsURLRegex} {
		if matches := re.FindStringSubmatch(url); matches != nil {
			return &RepoRef{Owner: matches[1], Repo: matches[2]}, nil
		}
	}

	return nil, errors.ErrRemoteURL(url)
}

// RepoURL is the canonical https URL of owner/repo, without a .git suffix.
func RepoURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// TreeURL points a browser at branch in owner/repo.
func TreeURL(owner, repo, branch string) string {
	return RepoURL(owner, repo) + "/tree/" + branch
}
