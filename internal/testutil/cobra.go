package testutil

import (
	"testing"

	"github.com/spf13/cobra"
)

// Flag describes the parts of a command flag a test cares about. Empty
// fields are not checked; Default is always compared.
type Flag struct {
	Name      string
	Type      string
	Default   string
	Shorthand string
}

// AssertFlag fails unless cmd has a local or persistent flag matching want.
func AssertFlag(t *testing.T, cmd *cobra.Command, want Flag) {
	t.Helper()
	flag := cmd.Flags().Lookup(want.Name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(want.Name)
	}
	if flag == nil {
		t.Fatalf("%s has no --%s flag", cmd.Name(), want.Name)
	}
	if flag.DefValue != want.Default {
		t.Fatalf("--%s defaults to %q, want %q", want.Name, flag.DefValue, want.Default)
	}
	if want.Type != "" && flag.Value.Type() != want.Type {
		t.Fatalf("--%s is a %s flag, want %s", want.Name, flag.Value.Type(), want.Type)
	}
	if want.Shorthand != "" && flag.Shorthand != want.Shorthand {
		t.Fatalf("--%s has shorthand %q, want %q", want.Name, flag.Shorthand, want.Shorthand)
	}
}
