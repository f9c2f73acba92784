// Package assert panics on broken internal invariants. Conditions that
// depend on input data are reported as errors instead.
package assert

import (
	"fmt"
	"runtime/debug"
)

func Assert(condition bool) {
	if !condition {
		s := debug.Stack()

		panic("assertion failed:\n" + string(s))
	}
}

// Assertf is Assert with a message describing the broken invariant.
func Assertf(condition bool, format string, args ...any) {
	if !condition {
		s := debug.Stack()

		panic("assertion failed: " + fmt.Sprintf(format, args...) + "\n" + string(s))
	}
}
