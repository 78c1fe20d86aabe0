package validation

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/hooks"
	"github.com/sqve/tandem/internal/logger"
	"github.com/sqve/tandem/internal/manifest"
	"github.com/sqve/tandem/internal/publish"
	"github.com/sqve/tandem/internal/testutil"
	testgit "github.com/sqve/tandem/internal/testutil/git"
	"github.com/sqve/tandem/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forkLine = `jsparagus = { git = "https://github.com/alice/jsparagus", branch = "main-generated-branch" }`

func testConfig(ws *testgit.Workspace) *config.Config {
	cfg := config.Default()
	cfg.Library.GenerateCommand = testgit.GenerateCommand
	cfg.Host.VendorCommand = testgit.VendorCommand
	cfg.Host.ValidationURL = ws.Try
	return cfg
}

func newTestPusher(t *testing.T, cfg *config.Config, ws *testgit.Workspace) *Pusher {
	t.Helper()
	log := logger.Discard()

	host, lib, err := workspace.NewResolver(cfg, log).ResolveHost(ws.Host.Path)
	require.NoError(t, err)

	localPath, err := manifest.LocalPath(host.Declaration, lib.Root)
	require.NoError(t, err)

	runner := hooks.NewRunner(log)
	rewriter := manifest.NewRewriter(cfg.Library.Name, cfg.Library.UpstreamOrg, localPath)
	return New(cfg, host, rewriter, publish.New(cfg, lib.Repo, runner, log), runner, log)
}

// assertHostRestored checks the host is back on its original commit with
// the original declaration and nothing staged or modified.
func assertHostRestored(t *testing.T, ws *testgit.Workspace, head string) {
	t.Helper()
	assert.Equal(t, head, ws.Host.HeadSHA())
	assert.Equal(t, "main", ws.Host.CurrentBranch())
	assert.Empty(t, ws.Host.Status())
	assert.Equal(t, testgit.DeclarationContent, ws.Host.ReadFile(testgit.Declaration))
}

func tryGit(t *testing.T, ws *testgit.Workspace, args ...string) string {
	t.Helper()
	return strings.TrimSpace(testutil.MustExec(t, ws.Try, "git", args...))
}

func TestPush(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	head := ws.Host.HeadSHA()

	res, err := newTestPusher(t, testConfig(ws), ws).Push("debug")

	require.NoError(t, err)
	assert.Equal(t, "debug", res.BuildType)
	assert.Equal(t, "try: -b debug -p sm-smoosh-linux64 -u none -t none", res.Trigger)
	assert.Equal(t, "alice", res.Publish.ForkUser)
	assert.Equal(t, "main-generated-branch", res.Publish.Branch)
	assertHostRestored(t, ws, head)

	t.Run("validation remote registered", func(t *testing.T) {
		assert.Equal(t, ws.Try, ws.Host.Run("remote", "get-url", "try"))
	})

	t.Run("remote received trigger on top of vendor commit", func(t *testing.T) {
		assert.Equal(t, res.Commit, tryGit(t, ws, "rev-parse", "main"))
		assert.Equal(t, res.Trigger, tryGit(t, ws, "log", "-1", "--format=%s", "main"))
		assert.Equal(t, "Update vendored crates", tryGit(t, ws, "log", "-1", "--format=%s", "main~1"))
		assert.Equal(t, head, tryGit(t, ws, "rev-parse", "main~2"))

		empty := tryGit(t, ws, "diff-tree", "--no-commit-id", "--name-only", "-r", "main")
		assert.Empty(t, empty, "trigger commit must be empty")

		vendored := tryGit(t, ws, "diff-tree", "--no-commit-id", "--name-only", "-r", "main~1")
		assert.ElementsMatch(t, []string{"Cargo.lock", testgit.Declaration}, strings.Fields(vendored))

		decl := tryGit(t, ws, "show", "main~1:"+testgit.Declaration)
		assert.Contains(t, decl, "#"+testgit.OfficialLine)
		assert.Contains(t, decl, forkLine)
	})

	t.Run("library published and restored", func(t *testing.T) {
		assert.Equal(t, []string{"main-generated-branch"}, testgit.RemoteBranches(t, ws.Fork))
		assert.Equal(t, []string{"main"}, ws.Library.Branches())
	})
}

func TestPushFailureRestoresHost(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	head := ws.Host.HeadSHA()
	cfg := testConfig(ws)
	cfg.Host.ValidationURL = filepath.Join(ws.Root, "no-such-try.git")

	_, err := newTestPusher(t, cfg, ws).Push("all")

	testutil.AssertErrorCode(t, err, errors.ErrCodeCommand)
	testutil.AssertErrorContains(t, err, "git push --quiet try HEAD")
	assertHostRestored(t, ws, head)
	assert.Equal(t, []string{"main"}, ws.Library.Branches())
}

func TestVendorFailureRestoresHost(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	ws.Host.WriteFile("mozconfig", "ac_add_options --enable-debug\n")
	head := ws.Host.HeadSHA()
	cfg := testConfig(ws)
	cfg.Host.VendorCommand = "mkdir -p third_party/rust/jsparagus && touch third_party/rust/jsparagus/lib.rs && echo x >> Cargo.lock && exit 1"

	_, err := newTestPusher(t, cfg, ws).Push("opt")

	testutil.AssertErrorCode(t, err, errors.ErrCodeCommand)
	assert.Equal(t, head, ws.Host.HeadSHA())
	assert.Equal(t, "?? mozconfig", ws.Host.Status(), "pre-existing untracked files survive, vendored ones do not")
	assert.Equal(t, testgit.DeclarationContent, ws.Host.ReadFile(testgit.Declaration))
	assert.Empty(t, testgit.RemoteBranches(t, ws.Try))
}

func TestPushLeavesUnrelatedUntrackedFilesOut(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	ws.Host.WriteFile("mozconfig", "ac_add_options --enable-debug\n")
	cfg := testConfig(ws)
	cfg.Host.VendorCommand = "mkdir -p third_party/rust/jsparagus && echo 'pub fn parse() {}' > third_party/rust/jsparagus/lib.rs"

	_, err := newTestPusher(t, cfg, ws).Push("all")

	require.NoError(t, err)
	vendored := tryGit(t, ws, "diff-tree", "--no-commit-id", "--name-only", "-r", "main~1")
	assert.ElementsMatch(t, []string{"third_party/rust/jsparagus/lib.rs", testgit.Declaration}, strings.Fields(vendored))
	assert.Equal(t, "?? mozconfig", ws.Host.Status())
}

func TestPublishFailureLeavesHostUntouched(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	head := ws.Host.HeadSHA()
	cfg := testConfig(ws)
	cfg.Library.GenerateCommand = "exit 2"

	_, err := newTestPusher(t, cfg, ws).Push("all")

	testutil.AssertErrorCode(t, err, errors.ErrCodeCommand)
	testutil.AssertErrorContains(t, err, "publishing generated files failed")
	assertHostRestored(t, ws, head)
	assert.Empty(t, testgit.RemoteBranches(t, ws.Try))
}

func TestPushPreconditions(t *testing.T) {
	t.Run("unknown build type", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)

		_, err := newTestPusher(t, testConfig(ws), ws).Push("release")

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
		testutil.AssertErrorContains(t, err, "debug, opt, all")
	})

	t.Run("dirty host", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)
		ws.Host.WriteFile("Cargo.lock", "# edited\n")

		_, err := newTestPusher(t, testConfig(ws), ws).Push("all")

		testutil.AssertErrorCode(t, err, errors.ErrCodeDirtyRepository)
		assert.Empty(t, testgit.RemoteBranches(t, ws.Fork), "library must not be published")
	})

	t.Run("detached host", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)
		ws.Host.Run("checkout", "--quiet", "--detach", "HEAD")

		_, err := newTestPusher(t, testConfig(ws), ws).Push("all")

		testutil.AssertErrorCode(t, err, errors.ErrCodeDetachedHead)
	})
}

func TestExistingValidationRemoteIsKept(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	ws.Host.AddRemote("try", ws.Try)
	cfg := testConfig(ws)
	cfg.Host.ValidationURL = "hg::https://hg.mozilla.org/try"

	_, err := newTestPusher(t, cfg, ws).Push("all")

	require.NoError(t, err)
	assert.Equal(t, ws.Try, ws.Host.Run("remote", "get-url", "try"))
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish() (*publish.Result, error) {
	f.calls++
	return nil, errors.ErrRemoteURL("/srv/jsparagus.git")
}

func TestPushUsesPublisher(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	cfg := testConfig(ws)
	log := logger.Discard()
	host, err := workspace.NewResolver(cfg, log).FindHost(ws.Host.Path)
	require.NoError(t, err)

	pub := &failingPublisher{}
	rewriter := manifest.NewRewriter(cfg.Library.Name, cfg.Library.UpstreamOrg, "../jsparagus")
	_, err = New(cfg, host, rewriter, pub, hooks.NewRunner(log), log).Push("all")

	testutil.AssertErrorCode(t, err, errors.ErrCodeRemoteURLParse)
	assert.Equal(t, 1, pub.calls)
}
