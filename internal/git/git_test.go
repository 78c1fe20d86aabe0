package git

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/testutil"
	testgit "github.com/sqve/tandem/internal/testutil/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T, path string) *Repo {
	t.Helper()
	repo, err := Open(path, nil)
	require.NoError(t, err)
	return repo
}

func TestOpen(t *testing.T) {
	t.Run("opens working tree", func(t *testing.T) {
		fixture := testgit.NewTestRepo(t)

		repo, err := Open(fixture.Path, nil)

		require.NoError(t, err)
		assert.Equal(t, fixture.Path, repo.Path())
	})

	t.Run("rejects plain directory", func(t *testing.T) {
		_, err := Open(testutil.TempDir(t), nil)

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
		testutil.AssertErrorContains(t, err, "not a git repository")
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := Open("", nil)

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
	})
}

func TestCapture(t *testing.T) {
	fixture := testgit.NewTestRepo(t)
	repo := openTestRepo(t, fixture.Path)

	out, err := repo.Capture("log", "-1", "--format=%s")

	require.NoError(t, err)
	assert.Equal(t, "initial", out, "trailing newline should be trimmed")
}

func TestRunFailureCarriesStderr(t *testing.T) {
	fixture := testgit.NewTestRepo(t)
	repo := openTestRepo(t, fixture.Path)

	err := repo.Run("checkout", "no-such-branch")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCommand))
	assert.Contains(t, err.Error(), "git checkout no-such-branch failed")
	assert.Contains(t, err.Error(), "no-such-branch", "stderr should be part of the message")

	ctx := errors.GetErrorContext(err)
	assert.NotEqual(t, 0, ctx["exit_code"])
}

func TestHeadSHA(t *testing.T) {
	fixture := testgit.NewTestRepo(t)
	repo := openTestRepo(t, fixture.Path)

	sha, err := repo.HeadSHA()

	require.NoError(t, err)
	assert.Equal(t, fixture.HeadSHA(), sha)

	fixture.WriteFile("src/lib.rs", "")
	fixture.CommitAll("Add lib")

	sha, err = repo.HeadSHA()
	require.NoError(t, err)
	assert.Equal(t, fixture.HeadSHA(), sha, "HEAD must be re-read on every call")
}

func TestGitDir(t *testing.T) {
	fixture := testgit.NewTestRepo(t)
	repo := openTestRepo(t, fixture.Path)

	dir, err := repo.GitDir()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fixture.Path, ".git"), dir)
}

func TestDebugLogsCommands(t *testing.T) {
	fixture := testgit.NewTestRepo(t)
	var stderr strings.Builder
	log := newDebugLogger(&stderr)

	repo, err := Open(fixture.Path, log)
	require.NoError(t, err)
	_, err = repo.Capture("rev-parse", "HEAD")
	require.NoError(t, err)

	assert.Contains(t, stderr.String(), "[DEBUG] Executing: git rev-parse HEAD")
}
