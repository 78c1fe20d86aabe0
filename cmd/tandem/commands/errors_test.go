package commands

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sqve/tandem/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "coded error with hint",
			err:  errors.ErrDetached("/src/gecko", nil),
			want: "Error: repository is in detached HEAD state: /src/gecko\n" +
				"Hint: Check out a branch with 'git switch <branch>'\n",
		},
		{
			name: "wrapped coded error keeps hint",
			err:  fmt.Errorf("publishing generated files failed: %w", errors.ErrRemoteURL("/srv/jsparagus.git")),
			want: "Error: publishing generated files failed: remote URL is not a GitHub user/repo URL: /srv/jsparagus.git\n" +
				"Hint: Point the fork remote at your GitHub fork, e.g. 'git remote set-url origin git@github.com:<user>/jsparagus.git'\n",
		},
		{
			name: "joined rollback failure",
			err: errors.Join(
				errors.ErrCommandFailed("git", []string{"push", "--quiet", "try", "HEAD"}, 128, "", nil),
				fmt.Errorf("rollback %q: %w", "reset host to 0123456789ab", errors.New("index.lock exists")),
			),
			want: "Error: git push --quiet try HEAD failed (exit 128)\n" +
				"  rollback \"reset host to 0123456789ab\": index.lock exists\n",
		},
		{
			name: "plain error",
			err:  errors.New("unknown command \"frobnicate\" for \"tandem\""),
			want: "Error: unknown command \"frobnicate\" for \"tandem\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err, true)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
