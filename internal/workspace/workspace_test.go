package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sqve/tandem/internal/config"
	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/logger"
	"github.com/sqve/tandem/internal/testutil"
	testgit "github.com/sqve/tandem/internal/testutil/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	return NewResolver(config.Default(), logger.Discard())
}

func TestFindHost(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	r := newTestResolver()

	t.Run("from host root", func(t *testing.T) {
		host, err := r.FindHost(ws.Host.Path)

		require.NoError(t, err)
		assert.Equal(t, ws.Host.Path, host.Root)
		assert.Equal(t, filepath.Join(ws.Host.Path, testgit.Declaration), host.Declaration)
		assert.Equal(t, ws.Host.Path, host.Repo.Path())
	})

	t.Run("from nested directory", func(t *testing.T) {
		host, err := r.FindHost(filepath.Join(ws.Host.Path, "js", "src", "frontend"))

		require.NoError(t, err)
		assert.Equal(t, ws.Host.Path, host.Root)
	})

	t.Run("outside host", func(t *testing.T) {
		_, err := r.FindHost(ws.Library.Path)

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
		testutil.AssertErrorContains(t, err, "not inside a host checkout")
	})
}

func TestFindLibrary(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	r := newTestResolver()

	t.Run("from host uses sibling checkout", func(t *testing.T) {
		lib, err := r.FindLibrary(ws.Host.Path)

		require.NoError(t, err)
		assert.Equal(t, ws.Library.Path, lib.Root)
		assert.Equal(t, filepath.Join(ws.Library.Path, "Cargo.toml"), lib.Manifest)
	})

	t.Run("from library root", func(t *testing.T) {
		lib, err := r.FindLibrary(ws.Library.Path)

		require.NoError(t, err)
		assert.Equal(t, ws.Library.Path, lib.Root)
	})

	t.Run("from member crate skips its manifest", func(t *testing.T) {
		lib, err := r.FindLibrary(filepath.Join(ws.Library.Path, "crates", "parser"))

		require.NoError(t, err)
		assert.Equal(t, ws.Library.Path, lib.Root)
	})

	t.Run("unrelated directory", func(t *testing.T) {
		_, err := r.FindLibrary(testutil.TempDir(t))

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
	})
}

func TestResolveHost(t *testing.T) {
	t.Run("host with library", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)

		host, lib, err := newTestResolver().ResolveHost(ws.Host.Path)

		require.NoError(t, err)
		assert.Equal(t, ws.Host.Path, host.Root)
		assert.Equal(t, ws.Library.Path, lib.Root)
	})

	t.Run("missing library checkout", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)
		require.NoError(t, os.RemoveAll(ws.Library.Path))

		_, _, err := newTestResolver().ResolveHost(ws.Host.Path)

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
	})

	t.Run("library manifest names another package", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)
		ws.Library.WriteFile("Cargo.toml", "[package]\nname = \"smoosh\"\n")

		_, _, err := newTestResolver().ResolveHost(ws.Host.Path)

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
		testutil.AssertErrorContains(t, err, `names package "smoosh"`)
	})

	t.Run("configured library dir", func(t *testing.T) {
		ws := testgit.NewWorkspace(t)
		moved := filepath.Join(ws.Host.Path, "third_party", "jsparagus")
		require.NoError(t, os.MkdirAll(filepath.Dir(moved), 0o750))
		require.NoError(t, os.Rename(ws.Library.Path, moved))

		cfg := config.Default()
		cfg.Library.Dir = "third_party/jsparagus"
		_, lib, err := NewResolver(cfg, logger.Discard()).ResolveHost(ws.Host.Path)

		require.NoError(t, err)
		assert.Equal(t, moved, lib.Root)
	})
}

func TestPackageName(t *testing.T) {
	dir := testutil.TempDir(t)

	t.Run("reads package name", func(t *testing.T) {
		path := filepath.Join(dir, "Cargo.toml")
		testutil.WriteFile(t, path, testgit.LibraryManifest)

		name, err := PackageName(path)

		require.NoError(t, err)
		assert.Equal(t, "jsparagus", name)
	})

	t.Run("virtual manifest has no name", func(t *testing.T) {
		path := filepath.Join(dir, "virtual.toml")
		testutil.WriteFile(t, path, "[workspace]\nmembers = [\"a\"]\n")

		name, err := PackageName(path)

		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("malformed manifest", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		testutil.WriteFile(t, path, "[package\nname = ")

		_, err := PackageName(path)

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := PackageName(filepath.Join(dir, "missing.toml"))

		testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
	})
}

func TestFindRepoRoot(t *testing.T) {
	ws := testgit.NewWorkspace(t)

	root, err := FindRepoRoot(filepath.Join(ws.Host.Path, "js", "src"))
	require.NoError(t, err)
	assert.Equal(t, ws.Host.Path, root)

	_, err = FindRepoRoot(testutil.TempDir(t))
	testutil.AssertErrorCode(t, err, errors.ErrCodeEnvironment)
}
