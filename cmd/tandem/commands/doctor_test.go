package commands

import (
	"testing"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/testutil"
	testgit "github.com/sqve/tandem/internal/testutil/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDoctorCmd(t *testing.T) {
	cmd := newDoctorCmd(&App{})

	assert.Equal(t, "doctor", cmd.Use)
	testutil.AssertFlag(t, cmd, testutil.Flag{Name: "fix", Type: "bool", Default: "false"})
}

func TestDoctorClean(t *testing.T) {
	ws := testgit.NewWorkspace(t)

	res := runTandem(t, ws.Host.Path, workspaceConfig(t, ws), "doctor")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No issues found")
}

// interruptedRun leaves the library the way a killed `tandem gen` would:
// on the disposable branch with the ignore file edited.
func interruptedRun(ws *testgit.Workspace) {
	ws.Library.CreateBranch("main-generated-branch")
	ws.Library.Checkout("main-generated-branch")
	ws.Library.WriteFile(".gitignore", "/target\n#*_generated.rs\n")
}

func TestDoctorReportsInterruptedRun(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	interruptedRun(ws)

	res := runTandem(t, ws.Library.Path, workspaceConfig(t, ws), "doctor")

	testutil.AssertErrorCode(t, res.err, errors.ErrCodeEnvironment)
	testutil.AssertErrorContains(t, res.err, "2 problem(s)")
	assert.Contains(t, res.stderr, ".gitignore differs from HEAD")
	assert.Contains(t, res.stderr, "stale branch main-generated-branch")
	assert.Contains(t, res.stderr, "tandem doctor --fix")
	assert.Equal(t, "main-generated-branch", ws.Library.CurrentBranch(), "doctor without --fix changes nothing")
}

func TestDoctorFix(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	cfgFile := workspaceConfig(t, ws)
	interruptedRun(ws)

	res := runTandem(t, ws.Host.Path, cfgFile, "doctor", "--fix")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Fixed: stale branch main-generated-branch")
	assert.Equal(t, "main", ws.Library.CurrentBranch())
	assert.Equal(t, []string{"main"}, ws.Library.Branches())
	assert.Equal(t, testgit.LibraryIgnore, ws.Library.ReadFile(".gitignore"))

	res = runTandem(t, ws.Host.Path, cfgFile, "doctor")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No issues found")
}

func TestDoctorWarnsAboutNonOfficialMode(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	cfgFile := workspaceConfig(t, ws)
	require.NoError(t, runTandem(t, ws.Host.Path, cfgFile, "cargo", "fork", "alice", "fix-1").err)

	res := runTandem(t, ws.Host.Path, cfgFile, "doctor", "--fix")

	require.NoError(t, res.err, "warnings do not fail doctor")
	assert.Contains(t, res.stderr, "uses fork alice/fix-1")
	assert.Contains(t, res.stderr, "tandem cargo official")
}

func TestDoctorPausedOperation(t *testing.T) {
	ws := testgit.NewWorkspace(t)
	gitDir := ws.Host.Run("rev-parse", "--absolute-git-dir")
	testutil.WriteFile(t, gitDir+"/MERGE_HEAD", ws.Host.HeadSHA()+"\n")

	res := runTandem(t, ws.Host.Path, workspaceConfig(t, ws), "doctor")

	testutil.AssertErrorContains(t, res.err, "1 problem(s)")
	assert.Contains(t, res.stderr, "in the middle of merging")
}
