// Package hooks runs the user-configured shell commands of the workflow: the
// artifact generation command in the library and the dependency-build
// trigger in the host.
package hooks

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/logger"
	"github.com/sqve/tandem/internal/styles"
)

// stderrTailLines is how much of a failing command's stderr ends up in the
// error message. The full output has already been streamed.
const stderrTailLines = 10

type Runner struct {
	log *logger.Logger
	out io.Writer
}

// NewRunner streams command output to the logger's stderr.
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{log: log, out: log.Stderr()}
}

// NewRunnerWithOutput streams command output to out.
func NewRunnerWithOutput(log *logger.Logger, out io.Writer) *Runner {
	return &Runner{log: log, out: out}
}

// Run executes command through sh -c in workDir. Each output line is
// prefixed with the command so it reads apart from tandem's own progress.
// A non-zero exit yields a COMMAND error.
func (r *Runner) Run(workDir, command string) error {
	r.log.Debug("Executing hook: %s in %s", command, workDir)
	start := time.Now()

	cmd := exec.Command("sh", "-c", command) //nolint:gosec // User-configured commands are intentionally executed
	cmd.Dir = workDir

	var mu sync.Mutex
	prefix := styles.Render(&styles.Dimmed, fmt.Sprintf("  [%s]", command), r.log.IsPlain())
	stdout := newPrefixWriter(prefix, r.out, &mu)
	stderr := newPrefixWriter(prefix, r.out, &mu)
	tail := &tailBuffer{max: stderrTailLines}

	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)

	if err := cmd.Start(); err != nil {
		return errors.ErrCommandFailed("sh", []string{"-c", command}, -1, "", err)
	}

	err := cmd.Wait()
	_ = stdout.Flush()
	_ = stderr.Flush()

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			err = nil
		}
		r.log.Debug("Hook failed with exit code %d after %s: %s", exitCode, time.Since(start).Round(time.Millisecond), command)
		return errors.ErrCommandFailed("sh", []string{"-c", command}, exitCode, tail.String(), err)
	}

	r.log.Debug("Hook succeeded in %s: %s", time.Since(start).Round(time.Millisecond), command)
	return nil
}
