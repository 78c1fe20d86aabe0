package manifest

import "fmt"

// Mode is the dependency source the host's declaration file should select.
// It is one of Local, Official or Fork.
type Mode interface {
	fmt.Stringer
	isMode()
}

// Local points the host at the library checkout on disk.
type Local struct{}

// Official restores the canonical upstream line. An empty Rev keeps the
// revision already recorded in the file.
type Official struct {
	Rev string
}

// Fork points the host at a branch of a user's fork on GitHub.
type Fork struct {
	User   string
	Branch string
}

func (Local) isMode()    {}
func (Official) isMode() {}
func (Fork) isMode()     {}

func (Local) String() string {
	return "local"
}

func (o Official) String() string {
	if o.Rev == "" {
		return "official"
	}
	return "official@" + o.Rev
}

func (f Fork) String() string {
	return fmt.Sprintf("fork %s/%s", f.User, f.Branch)
}
