package github

import (
	"testing"

	"github.com/sqve/tandem/internal/errors"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
	}{
		{"ssh", "git@github.com:alice/jsparagus.git", "alice", "jsparagus"},
		{"ssh without suffix", "git@github.com:alice/jsparagus", "alice", "jsparagus"},
		{"ssh scheme", "ssh://git@github.com/alice/jsparagus.git", "alice", "jsparagus"},
		{"https", "https://github.com/alice/jsparagus.git", "alice", "jsparagus"},
		{"https without suffix", "https://github.com/alice/jsparagus", "alice", "jsparagus"},
		{"https trailing slash", "https://github.com/alice/jsparagus/", "alice", "jsparagus"},
		{"https with user", "https://alice@github.com/alice/jsparagus.git", "alice", "jsparagus"},
		{"surrounding whitespace", "  https://github.com/bob/jsparagus\n", "bob", "jsparagus"},
		{"dotted repo name", "git@github.com:mozilla-spidermonkey/jsparagus.rs.git", "mozilla-spidermonkey", "jsparagus.rs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRepoURL(tt.url)
			if err != nil {
				t.Fatalf("ParseRepoURL(%q) failed: %v", tt.url, err)
			}
			if ref.Owner != tt.wantOwner || ref.Repo != tt.wantRepo {
				t.Errorf("ParseRepoURL(%q) = %s/%s, want %s/%s", tt.url, ref.Owner, ref.Repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestParseRepoURLRejects(t *testing.T) {
	urls := []string{
		"",
		"https://gitlab.com/alice/jsparagus.git",
		"hg::https://hg.mozilla.org/try",
		"/tmp/remote.git",
		"https://github.com/alice",
		"https://github.com/alice/jsparagus/tree/main",
	}

	for _, url := range urls {
		t.Run(url, func(t *testing.T) {
			_, err := ParseRepoURL(url)
			if !errors.Is(err, errors.ErrRemoteURLParse) {
				t.Errorf("ParseRepoURL(%q) error = %v, want REMOTE_URL_PARSE", url, err)
			}
		})
	}
}

func TestURLs(t *testing.T) {
	if got := RepoURL("alice", "jsparagus"); got != "https://github.com/alice/jsparagus" {
		t.Errorf("RepoURL = %q", got)
	}
	if got := TreeURL("alice", "jsparagus", "main-generated-branch"); got != "https://github.com/alice/jsparagus/tree/main-generated-branch" {
		t.Errorf("TreeURL = %q", got)
	}
}
