package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/styles"
)

// errorHints maps error codes to the next thing a user should try.
var errorHints = map[string]string{
	errors.ErrCodeDirtyRepository:       "Commit or stash your changes first, or run 'tandem doctor' to find leftovers from an interrupted run",
	errors.ErrCodeDetachedHead:          "Check out a branch with 'git switch <branch>'",
	errors.ErrCodeCanonicalLineNotFound: "Restore the official dependency line with 'git checkout -- <declaration file>'",
	errors.ErrCodeRemoteURLParse:        "Point the fork remote at your GitHub fork, e.g. 'git remote set-url origin git@github.com:<user>/jsparagus.git'",
	errors.ErrCodeRemoteRefNotFound:     "Check the remote with 'git ls-remote <remote>' or run 'git fetch' first",
}

// hintFor returns the hint for err's code, or "" if there is none.
func hintFor(err error) string {
	return errorHints[errors.GetErrorCode(err)]
}

// printError writes err and, when one exists, a hint. Multi-line errors
// (joined rollback failures) keep their line structure.
func printError(w io.Writer, err error, plain bool) {
	lines := strings.Split(err.Error(), "\n")
	if plain {
		fmt.Fprintf(w, "Error: %s\n", lines[0])
	} else {
		fmt.Fprintf(w, "%s %s\n", styles.Render(&styles.Error, "✗", false), lines[0])
	}
	for _, line := range lines[1:] {
		fmt.Fprintf(w, "  %s\n", line)
	}

	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "%s\n", styles.Render(&styles.Dimmed, "Hint: "+hint, plain))
	}
}
