// Package txn records compensating actions for multi-step operations that
// mutate repositories, and replays them in reverse when a step fails.
package txn

import (
	"fmt"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/logger"
)

type action struct {
	name string
	undo func() error
}

// Stack is a LIFO of compensating actions. Register an action as soon as the
// state it reverses exists (or just before, when a step can fail halfway).
// The zero value is not usable; call New.
type Stack struct {
	log     *logger.Logger
	actions []action
}

func New(log *logger.Logger) *Stack {
	if log == nil {
		log = logger.Discard()
	}
	return &Stack{log: log}
}

// Push registers undo under a short imperative name such as
// "delete branch main-generated-branch".
func (s *Stack) Push(name string, undo func() error) {
	s.actions = append(s.actions, action{name: name, undo: undo})
}

func (s *Stack) Len() int {
	return len(s.actions)
}

// Unwind runs every registered action, most recent first. A failing action
// does not stop the ones below it; all failures are joined. The stack is
// empty afterwards.
func (s *Stack) Unwind() error {
	var errs []error
	for i := len(s.actions) - 1; i >= 0; i-- {
		a := s.actions[i]
		s.log.Debug("Rolling back: %s", a.name)
		if err := a.undo(); err != nil {
			s.log.Warning("Failed to %s: %v", a.name, err)
			errs = append(errs, fmt.Errorf("rollback %q: %w", a.name, err))
		}
	}
	s.actions = nil
	return errors.Join(errs...)
}

// Discard drops every registered action without running it.
func (s *Stack) Discard() {
	s.actions = nil
}

// Finish is meant to be deferred with a pointer to the caller's named error
// result. It unwinds and appends any rollback failures to *errp. Callers that
// only want rollback on failure should Discard before returning nil.
func (s *Stack) Finish(errp *error) {
	if err := s.Unwind(); err != nil {
		*errp = errors.Join(*errp, err)
	}
}

// Rollback is Finish for the failure path only: it unwinds when *errp is
// non-nil and discards the stack otherwise.
func (s *Stack) Rollback(errp *error) {
	if *errp == nil {
		s.Discard()
		return
	}
	if s.Len() > 0 {
		s.log.Warning("Rolling back %d step(s)", s.Len())
	}
	s.Finish(errp)
}
