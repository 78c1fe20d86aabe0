package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sqve/tandem/internal/fs"
	"github.com/sqve/tandem/internal/testutil"
)

// Fixture content shared by tests that need a realistic host/library pair.
const (
	LibraryName = "jsparagus"
	UpstreamOrg = "mozilla-spidermonkey"
	ForkUser    = "alice"
	ForkURL     = "https://github.com/alice/jsparagus.git"

	Declaration  = "js/src/frontend/smoosh/Cargo.toml"
	OfficialRev  = "4f1e5a8c2a9b3d7e6f0a1b2c3d4e5f6a7b8c9d0e"
	OfficialLine = `jsparagus = { git = "https://github.com/mozilla-spidermonkey/jsparagus", rev = "` + OfficialRev + `" }`

	DeclarationContent = "[package]\n" +
		"name = \"smoosh\"\n" +
		"version = \"0.1.0\"\n" +
		"\n" +
		"[dependencies]\n" +
		"bumpalo = \"3.2.1\"\n" +
		OfficialLine + "\n" +
		"log = \"0.4\"\n"

	LibraryManifest = "[package]\nname = \"jsparagus\"\nversion = \"0.1.0\"\n\n[workspace]\nmembers = [\"crates/parser\"]\n"
	LibraryIgnore   = "/target\n*_generated.rs\n"

	// GenerateCommand stands in for `make all`.
	GenerateCommand = "echo 'pub const TABLES: u8 = 1;' > parser_generated.rs"
	// VendorCommand stands in for `./mach vendor rust`.
	VendorCommand = "echo vendored >> Cargo.lock"
)

// TestRepo provides a test git repository with proper configuration
type TestRepo struct {
	t    *testing.T
	Dir  string
	Path string
}

// NewTestRepo creates a new test repository with git config set up.
// Pass an optional branch name (default "main").
func NewTestRepo(t *testing.T, branchName ...string) *TestRepo {
	t.Helper()

	dir := testutil.TempDir(t)
	branch := "main"
	if len(branchName) > 0 && branchName[0] != "" {
		branch = branchName[0]
	}

	repo := NewTestRepoAt(t, filepath.Join(dir, "repo"), branch)
	repo.Dir = dir
	return repo
}

// NewTestRepoAt initializes a repository at path with an initial commit.
func NewTestRepoAt(t *testing.T, path, branch string) *TestRepo {
	t.Helper()

	if err := os.MkdirAll(path, fs.DirGit); err != nil {
		t.Fatalf("Failed to create repo dir: %v", err)
	}

	r := &TestRepo{t: t, Dir: filepath.Dir(path), Path: path}
	r.Run("init", "-b", branch)

	configs := [][]string{
		{"commit.gpgsign", "false"},
		{"user.email", "test@example.com"},
		{"user.name", "Test User"},
	}
	for _, cfg := range configs {
		r.Run("config", cfg[0], cfg[1])
	}

	r.WriteFile("README.md", "# test\n")
	r.Run("add", ".")
	r.Run("commit", "-m", "initial")

	return r
}

// NewBareRepo creates an empty bare repository and returns its path.
func NewBareRepo(t *testing.T) string {
	t.Helper()
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "remote.git")
	testutil.MustExec(t, dir, "git", "init", "--quiet", "--bare", "-b", "main", path)
	return path
}

// Run executes git in the repository and returns trimmed stdout. Fails the
// test on error, including git's stderr in the message.
func (r *TestRepo) Run(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...) // nolint:gosec // Test helper with controlled input
	cmd.Dir = r.Path
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		r.t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, stderr)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes content to a file in the repository, creating parent dirs.
func (r *TestRepo) WriteFile(name, content string) {
	r.t.Helper()
	testutil.WriteFile(r.t, filepath.Join(r.Path, name), content)
}

// ReadFile returns the content of a file in the repository.
func (r *TestRepo) ReadFile(name string) string {
	r.t.Helper()
	return testutil.ReadFile(r.t, filepath.Join(r.Path, name))
}

// CommitAll stages every change and commits it.
func (r *TestRepo) CommitAll(message string) {
	r.t.Helper()
	r.Run("add", "-A")
	r.Run("commit", "-m", message)
}

// AddRemote adds a remote to the repository
func (r *TestRepo) AddRemote(name, url string) {
	r.t.Helper()
	r.Run("remote", "add", name, url)
}

// SetPushURL makes pushes to remote go to url while fetch URL stays as is.
func (r *TestRepo) SetPushURL(remote, url string) {
	r.t.Helper()
	r.Run("remote", "set-url", "--push", remote, url)
}

// CreateBranch creates a new branch at the current HEAD
func (r *TestRepo) CreateBranch(name string) {
	r.t.Helper()
	r.Run("branch", name)
}

// Checkout switches to a branch
func (r *TestRepo) Checkout(name string) {
	r.t.Helper()
	r.Run("checkout", "--quiet", name)
}

func (r *TestRepo) HeadSHA() string {
	r.t.Helper()
	return r.Run("rev-parse", "HEAD")
}

func (r *TestRepo) CurrentBranch() string {
	r.t.Helper()
	return r.Run("rev-parse", "--abbrev-ref", "HEAD")
}

// Status returns porcelain status including untracked files.
func (r *TestRepo) Status() string {
	r.t.Helper()
	return r.Run("status", "--porcelain")
}

func (r *TestRepo) Branches() []string {
	r.t.Helper()
	out := r.Run("for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Workspace is a host checkout with the library checked out next to it, the
// layout the default configuration expects:
//
//	Root/gecko       host
//	Root/jsparagus   library
//
// Pushes to the library's origin land in Fork while its URL still reads as a
// GitHub fork of ForkUser. Upstream carries a ci_generated branch and Try
// stands in for the validation service.
type Workspace struct {
	Root     string
	Host     *TestRepo
	Library  *TestRepo
	Fork     string
	Upstream string
	Try      string
}

func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	root := testutil.TempDir(t)
	ws := &Workspace{
		Root:     root,
		Fork:     NewBareRepo(t),
		Upstream: NewBareRepo(t),
		Try:      NewBareRepo(t),
	}

	ws.Library = NewTestRepoAt(t, filepath.Join(root, "jsparagus"), "main")
	ws.Library.WriteFile("Cargo.toml", LibraryManifest)
	ws.Library.WriteFile("crates/parser/Cargo.toml", "[package]\nname = \"jsparagus-parser\"\n")
	ws.Library.WriteFile(".gitignore", LibraryIgnore)
	ws.Library.CommitAll("Add crate manifests")
	ws.Library.AddRemote("origin", ForkURL)
	ws.Library.SetPushURL("origin", ws.Fork)
	ws.Library.AddRemote("upstream", ws.Upstream)
	ws.Library.Run("push", "--quiet", "upstream", "main", "main:ci_generated")

	ws.Host = NewTestRepoAt(t, filepath.Join(root, "gecko"), "main")
	ws.Host.WriteFile(Declaration, DeclarationContent)
	ws.Host.WriteFile("Cargo.lock", "# lockfile\n")
	ws.Host.CommitAll("Add smoosh crate")

	return ws
}

// CIGeneratedHead is the commit the upstream ci_generated branch points at.
func (ws *Workspace) CIGeneratedHead() string {
	return ws.Library.Run("ls-remote", "upstream", "refs/heads/ci_generated")[:40]
}

// RemoteBranches lists branch names in a bare repository.
func RemoteBranches(t *testing.T, bare string) []string {
	t.Helper()
	out := strings.TrimSpace(testutil.MustExec(t, bare, "git", "for-each-ref", "--format=%(refname:short)", "refs/heads/"))
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
