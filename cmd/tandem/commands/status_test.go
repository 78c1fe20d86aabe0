package commands

import (
	"encoding/json"
	"testing"

	"github.com/sqve/tandem/internal/testutil"
	testgit "github.com/sqve/tandem/internal/testutil/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusCmd(t *testing.T) {
	cmd := newStatusCmd(&App{})

	assert.Equal(t, "status", cmd.Use)
	testutil.AssertFlag(t, cmd, testutil.Flag{Name: "json", Type: "bool", Default: "false"})
}

func TestStatusJSON(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	cfgFile := workspaceConfig(t, ws)

	res := runTandem(t, ws.Host.Path, cfgFile, "status", "--json")
	require.NoError(t, res.err)

	var info StatusInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, "official@"+testgit.OfficialRev, info.Mode)
	require.NotNil(t, info.Host)
	require.NotNil(t, info.Library)
	assert.Equal(t, "main", info.Host.Branch)
	assert.False(t, info.Host.Dirty)
	assert.Equal(t, ws.Library.Path, info.Library.Path)

	t.Run("after switching to local", func(t *testing.T) {
		require.NoError(t, runTandem(t, ws.Host.Path, cfgFile, "cargo", "local").err)

		res := runTandem(t, ws.Host.Path, cfgFile, "status", "--json")
		require.NoError(t, res.err)

		var info StatusInfo
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
		assert.Equal(t, "local", info.Mode)
		assert.True(t, info.Host.Dirty)
		assert.Equal(t, []string{" M " + testgit.Declaration}, info.Host.Changes)
	})
}

func TestStatusFromLibraryOnly(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	repo.WriteFile("Cargo.toml", testgit.LibraryManifest)
	repo.CommitAll("Add manifest")
	repo.Run("checkout", "--quiet", "--detach", "HEAD")

	res := runTandem(t, repo.Path, "", "status", "--plain")
	require.NoError(t, res.err)

	assert.NotContains(t, res.stdout, "Dependency:")
	assert.Contains(t, res.stdout, "Library: "+repo.Path+" on (detached), clean")
}

func TestStatusText(t *testing.T) {
	ws := testgit.NewWorkspace(t)

	res := runTandem(t, ws.Host.Path, workspaceConfig(t, ws), "--plain", "status")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Dependency: official@"+testgit.OfficialRev+"\n")
	assert.Contains(t, res.stdout, "Host: "+ws.Host.Path+" on main, clean\n")
	assert.Contains(t, res.stdout, "Library: "+ws.Library.Path+" on main, clean\n")
}
