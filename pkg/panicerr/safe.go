// Package panicerr turns panics into coded errors so a single faulty call
// cannot take down a long running loop.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"

	"github.com/kazz187/taskforge/pkg/cerr"
)

// Safe wraps fn so that a panic comes back as a cerr.Internal error carrying
// the recovered value and its stack.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		return recovered(&catcher, err)
	}
}

// SafeContext is Safe for functions that take a context.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		return recovered(&catcher, err)
	}
}

func recovered(c *panics.Catcher, err error) error {
	r := c.Recovered()
	if r == nil {
		return err
	}
	e := cerr.NewError(cerr.Internal, "panic recovered", r.AsError())
	e.Stack = string(r.Stack)
	return e
}
